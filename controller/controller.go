package controller

import (
	"log"
	"os"

	"github.com/coreos/go-etcd/etcd"
	"github.com/pkg/errors"
	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/pkg/etcdutil"
)

// This is the controller of a job.
// A job needs controller to setup etcd data layout before any worker starts,
// and to turn a dead worker into a failed job so that the others stop
// waiting on it.
type Controller struct {
	name           string
	etcdclient     *etcd.Client
	conf           *famo.Config
	failDetectStop chan bool
	logger         *log.Logger
}

func New(name string, etcd *etcd.Client, conf *famo.Config) *Controller {
	return &Controller{
		name:       name,
		etcdclient: etcd,
		conf:       conf,
		logger:     log.New(os.Stdout, "", log.Lshortfile|log.Ltime|log.Ldate),
	}
}

// A controller typical workflow:
// 1. controller validates the config and sets up etcd layout.
// 2. Being ready, controller lets workers run and reports any failure found.
func (c *Controller) Start() error {
	if err := c.InitEtcdLayout(); err != nil {
		return err
	}
	c.failDetectStop = make(chan bool, 1)
	go c.startFailureDetection()
	c.logger.Printf("Controller starting, name: %s, tasks: %d, workers: %d\n", c.name, c.conf.NTasks, c.conf.WorldSize)
	return nil
}

func (c *Controller) Stop() error {
	c.stopFailureDetection()
	c.logger.Printf("Controller stopping...\n")
	return c.DestroyEtcdLayout()
}

// WaitForJobDone blocks until rank 0 or the failure detector sets a final
// job status and returns it.
func (c *Controller) WaitForJobDone() (string, error) {
	return etcdutil.WaitJobDone(c.etcdclient, c.name, nil)
}

func (c *Controller) InitEtcdLayout() error {
	if err := c.conf.Validate(); err != nil {
		return err
	}
	buf, err := famo.Dump(c.conf)
	if err != nil {
		return err
	}
	if err := etcdutil.PutConfig(c.etcdclient, c.name, buf); err != nil {
		return errors.Wrapf(err, "job %s", c.name)
	}
	if err := etcdutil.SetJobStatus(c.etcdclient, c.name, etcdutil.StatusRunning); err != nil {
		return err
	}

	// one unassigned slot per worker
	for i := 0; i < c.conf.WorldSize; i++ {
		if _, err := c.etcdclient.Create(etcdutil.RankPath(c.name, i), etcdutil.FreeRank, 0); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) DestroyEtcdLayout() error {
	_, err := c.etcdclient.Delete(etcdutil.JobPath(c.name), true)
	return err
}

// startFailureDetection marks the job failed when a worker's heartbeat lapses
// while the job is still running.
func (c *Controller) startFailureDetection() {
	failC := make(chan int)
	go func() {
		if err := etcdutil.WatchFailures(c.etcdclient, c.name, failC, c.failDetectStop); err != nil {
			c.logger.Printf("failure detection stopped: %v", err)
		}
		close(failC)
	}()
	for rank := range failC {
		status, err := etcdutil.GetJobStatus(c.etcdclient, c.name)
		if err != nil || status != etcdutil.StatusRunning {
			continue
		}
		c.logger.Printf("rank %d lost its heartbeat, job %s failed", rank, c.name)
		if err := etcdutil.SetJobStatus(c.etcdclient, c.name, etcdutil.StatusFailed); err != nil {
			c.logger.Printf("SetJobStatus failed: %v", err)
		}
	}
}

func (c *Controller) stopFailureDetection() {
	if c.failDetectStop != nil {
		c.failDetectStop <- true
	}
}
