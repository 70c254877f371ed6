/*

Ribmc estimates codon usage and translation parameters (mutation
bias, selection, synthesis rates, footprint and nonsense error
parameters) with an adaptive Metropolis-Hastings sampler. Four models
share the same sampler: ROC, FONSE, RFP and PANSE.

The basic usage of ribmc looks like this:

	ribmc ROC genome.fasta

, this will run the ROC model with a single mixture. Footprint based
models require counts:

	ribmc --counts counts.tsv --out trace RFP genome.fasta

To see all the options run:

	ribmc -h

*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"github.com/mrrlab/ribmc/model"
	"github.com/mrrlab/ribmc/parameter"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("ribmc")
var formatter = logging.MustStringFormatter(`%{message}`)

// loggers lists all the package loggers.
var loggers = []string{"ribmc", "mcmc", "model", "parameter", "genome",
	"checkpoint", "restart", "traceout"}

var (
	app = kingpin.New("ribmc", "adaptive MCMC for codon translation models").Version(version)

	// model and data
	modelName     = app.Arg("model", "model type").Required().Enum(model.Names()...)
	genomeFn      = app.Arg("genome", "coding sequences in FASTA format").Required().ExistingFile()
	countsFn      = app.Flag("counts", "footprint counts (gene, position or codon, count)").ExistingFile()
	configFn      = app.Flag("config", "YAML configuration (mixtures and initial values)").ExistingFile()
	nMixtures     = app.Flag("mixtures", "number of mixture elements").Default("1").Int()
	mixtureState  = app.Flag("mixture-state", "mixture definition ("+parameter.AllUnique+", "+parameter.MutationShared+" or "+parameter.SelectionShared+")").Default(parameter.AllUnique).Enum(parameter.AllUnique, parameter.MutationShared, parameter.SelectionShared)
	restartInFn   = app.Flag("restart", "read initial values from a restart file").ExistingFile()
	restartOutFn  = app.Flag("write-restart", "write the final state to a restart file").String()
	checkpointFn  = app.Flag("checkpoint", "checkpoint database").String()
	checkpointSec = app.Flag("checkpoint-seconds", "seconds between checkpoints").Default("60").Float64()

	// sampler
	samples     = app.Flag("samples", "number of samples").Default("1000").Int()
	thinning    = app.Flag("thin", "number of iterations per sample").Default("10").Int()
	adaptive    = app.Flag("adaptive", "adaptation window in iterations").Default("100").Int()
	adaptUntil  = app.Flag("adapt-until", "stop adapting after iteration (adapt during the whole run by default)").Default("0").Int()
	dirichlet   = app.Flag("dirichlet", "Dirichlet prior added to mixture counts").Default("1").Float64()
	noCodon     = app.Flag("no-codon", "don't estimate codon-specific parameters").Bool()
	noHyper     = app.Flag("no-hyper", "don't estimate sPhi").Bool()
	noPhi       = app.Flag("no-phi", "don't estimate synthesis rates").Bool()
	noMixture   = app.Flag("no-mixture", "don't estimate mixture assignments").Bool()
	report      = app.Flag("report", "report every N iterations").Default("100").Int()
	burnin      = app.Flag("burnin", "number of samples to discard in the summary (20% by default)").Default("-1").Int()
	nThreads    = app.Flag("nt", "number of threads to use").Int()
	seed        = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	metricsAddr = app.Flag("metrics", "serve prometheus metrics on the address").String()

	// output
	outLogF  = app.Flag("log", "write log to a file").String()
	outDir   = app.Flag("out", "write traces to the directory").String()
	plot     = app.Flag("plot", "plot traces to the output directory").Bool()
	simulate = app.Flag("simulate", "simulate a genome from the final state, write prefix.fasta and prefix.counts").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"("+
		"CRITICAL, "+
		"ERROR, "+
		"WARNING, "+
		"NOTICE, "+
		"INFO, "+
		"DEBUG)").
		Default("NOTICE").String()
	jsonF = app.Flag("json", "write json output to a file").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, name := range loggers {
		logging.SetLevel(level, name)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	runtime.GOMAXPROCS(*nThreads)

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.\n", effectiveNThreads)

	summary, err := run(newRunSettings(effectiveNThreads))
	if err != nil {
		log.Fatal(err)
	}
	summary.NThreads = effectiveNThreads
	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = *seed

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
