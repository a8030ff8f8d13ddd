package main

import (
	"flag"
	"io/ioutil"
	"log"
	"net"
	"os"
	"strings"

	"github.com/coreos/go-etcd/etcd"
	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/controller"
	"github.com/taskgraph/famo/dataset"
	"github.com/taskgraph/famo/example/synthetic"
	"github.com/taskgraph/famo/filesystem"
	"github.com/taskgraph/famo/framework"
	"github.com/taskgraph/famo/metrics"
	"golang.org/x/net/context"
)

func main() {
	programType := flag.String("type", "", "(c) controller, (t) task or (local) all ranks in this process")
	job := flag.String("job", "", "job name")
	configPath := flag.String("config", "", "JSON job config. Defaults to 2 tasks on 4 workers.")
	dataPattern := flag.String("data", "", "Glob of JSON lines data files. Synthetic data is generated if empty.")
	genPath := flag.String("gen", "", "Write the generated data to this file and exit.")
	dim := flag.Int("dim", 4, "Number of features.")
	perTask := flag.Int("per_task", 256, "Generated examples per task.")
	lr := flag.Float64("lr", 0.05, "Learning rate of the model.")
	etcdFlag := flag.String("etcd_urls", "http://localhost:4001", "List of etcd instances, sep by ','.")
	flag.Parse()
	etcdURLs := strings.Split(*etcdFlag, ",")

	fs := filesystem.NewLocalFSClient()
	conf, err := loadConfig(fs, *configPath)
	if err != nil {
		log.Fatalf("loadConfig failed: %v", err)
	}

	data := synthetic.Generate(conf.NTasks, *perTask, *dim, conf.Seed)
	if *genPath != "" {
		if err := dataset.Save(fs, *genPath, data); err != nil {
			log.Fatalf("Save failed: %v", err)
		}
		return
	}
	if *dataPattern != "" {
		if data, err = dataset.Load(fs, *dataPattern); err != nil {
			log.Fatalf("Load failed: %v", err)
		}
	}

	logger := log.New(os.Stdout, "", log.Lshortfile|log.Ltime|log.Ldate)
	builder := &synthetic.WorkloadBuilder{
		Data:    data,
		Dim:     *dim,
		LR:      *lr,
		Seed:    conf.Seed,
		Metrics: metrics.NewLoggerSink(logger),
		Logger:  logger,
	}

	switch *programType {
	case "c":
		if *job == "" {
			log.Fatalf("Please specify a job name")
		}
		log.Printf("controller")
		controller := controller.New(*job, etcd.NewClient(etcdURLs), conf)
		if err := controller.Start(); err != nil {
			log.Fatalf("controller.Start failed: %v", err)
		}
		status, err := controller.WaitForJobDone()
		if err != nil {
			log.Fatalf("WaitForJobDone failed: %v", err)
		}
		log.Printf("job %s %s", *job, status)
		controller.Stop()
	case "t":
		if *job == "" {
			log.Fatalf("Please specify a job name")
		}
		log.Printf("task")
		bootstrap := framework.NewBootStrap(*job, etcdURLs, createListener(), nil)
		bootstrap.SetWorkloadBuilder(builder)
		if err := bootstrap.Start(context.Background()); err != nil {
			log.Fatalf("bootstrap.Start failed: %v", err)
		}
	case "local":
		trainers, err := framework.RunLocal(context.Background(), conf, builder)
		if err != nil {
			log.Fatalf("RunLocal failed: %v", err)
		}
		log.Printf("final task weights: %v", trainers[0].Weights())
	default:
		log.Fatal("Please choose a type: (c) controller, (t) task or (local).")
	}
}

func loadConfig(fs filesystem.Client, path string) (*famo.Config, error) {
	if path == "" {
		conf := famo.DefaultConfig(2, 4)
		return conf, conf.Validate()
	}
	r, err := fs.OpenReadCloser(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	buf, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	conf, err := famo.Parse(buf)
	if err != nil {
		return nil, err
	}
	return conf, conf.Validate()
}

func createListener() net.Listener {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("net.Listen(\"tcp4\", \"\") failed: %v", err)
	}
	return l
}
