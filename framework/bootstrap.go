package framework

import (
	"fmt"
	"log"
	"net"
	"os"

	"github.com/coreos/go-etcd/etcd"
	"github.com/pkg/errors"
	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/collective"
	"github.com/taskgraph/famo/pkg/etcdutil"
	"golang.org/x/net/context"
	"google.golang.org/grpc"
)

// framework is one worker process of a job coordinated through etcd. It takes
// a free rank, trains it and reports back.
type framework struct {
	name     string
	etcdURLs []string
	ln       net.Listener
	log      *log.Logger

	builder    famo.WorkloadBuilder
	etcdClient *etcd.Client
	conf       *famo.Config
	rank       int

	server *grpc.Server
	client *collective.Client

	heartbeatStop chan struct{}
}

// One need to pass in at least these for framework to start. Rank 0 serves
// the collective on ln; other ranks only advertise its address.
func NewBootStrap(jobName string, etcdURLs []string, ln net.Listener, logger *log.Logger) famo.Bootstrap {
	return &framework{
		name:     jobName,
		etcdURLs: etcdURLs,
		ln:       ln,
		log:      logger,
	}
}

func (f *framework) SetWorkloadBuilder(builder famo.WorkloadBuilder) { f.builder = builder }

// Start blocks until this rank finished MaxSteps steps, failed, or the job was
// marked failed by someone else.
func (f *framework) Start(ctx context.Context) error {
	if f.log == nil {
		f.log = log.New(os.Stdout, "", log.Lshortfile|log.Ltime|log.Ldate)
	}
	if f.builder == nil {
		return famo.NewConfigurationError("workload", "no workload builder set")
	}
	f.etcdClient = etcd.NewClient(f.etcdURLs)

	var err error
	if f.conf, err = f.fetchConfig(); err != nil {
		return err
	}
	addr := f.ln.Addr().String()
	if f.rank, err = etcdutil.OccupyRank(f.etcdClient, f.name, addr); err != nil {
		return errors.Wrap(err, "occupy rank")
	}
	f.log.SetPrefix(fmt.Sprintf("rank %d: ", f.rank))
	f.log.Printf("joined job %s at %s", f.name, addr)

	f.heartbeat()
	defer f.stopHeartbeat()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.watchJobFailure(ctx, cancel)

	if err := f.connect(ctx); err != nil {
		f.shutdown(err)
		return err
	}
	defer f.client.Close()

	err = f.train(ctx)
	f.shutdown(err)
	return err
}

func (f *framework) fetchConfig() (*famo.Config, error) {
	buf, err := etcdutil.GetConfig(f.etcdClient, f.name)
	if err != nil {
		return nil, errors.Wrapf(err, "get config of job %s", f.name)
	}
	conf, err := famo.Parse(buf)
	if err != nil {
		return nil, famo.NewConfigurationError("config", "can not parse: %v", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// connect starts the collective server on rank 0 and dials it from every rank.
func (f *framework) connect(ctx context.Context) error {
	if f.rank == 0 {
		f.server = collective.NewServer(f.conf.WorldSize)
		go func() {
			if err := f.server.Serve(f.ln); err != nil {
				f.log.Printf("collective server stopped: %v", err)
			}
		}()
		if err := etcdutil.SetCoordinator(f.etcdClient, f.name, f.ln.Addr().String()); err != nil {
			return errors.Wrap(err, "publish coordinator")
		}
	}

	stop := make(chan bool, 1)
	go func() {
		<-ctx.Done()
		stop <- true
	}()
	addr, err := etcdutil.WaitCoordinator(f.etcdClient, f.name, stop)
	if err != nil {
		return errors.Wrap(err, "wait for coordinator")
	}
	f.client, err = collective.Dial(ctx, addr, f.rank, f.conf.WorldSize)
	return err
}

func (f *framework) train(ctx context.Context) error {
	wl, err := f.builder.GetWorkload(f.rank)
	if err != nil {
		return errors.Wrapf(err, "build workload of rank %d", f.rank)
	}
	if wl.Logger == nil {
		wl.Logger = f.log
	}
	t, err := New(f.conf, f.client, wl)
	if err != nil {
		return err
	}
	f.log.Printf("training task %d %v on %v", t.Task().ID, t.Task().Transform, t.Task().Range)
	for t.CurrentStep() < f.conf.MaxSteps {
		rep, err := t.Step(ctx)
		if err != nil {
			return err
		}
		if f.rank == 0 && rep.Updated {
			if err := etcdutil.SetProgress(f.etcdClient, f.name, rep.Step); err != nil {
				f.log.Printf("SetProgress(%d) failed: %v", rep.Step, err)
			}
		}
	}
	return nil
}

// shutdown publishes the outcome. Only rank 0 owns the job status and the
// collective server.
func (f *framework) shutdown(err error) {
	if err != nil {
		f.log.Printf("stopped: %v", err)
	}
	if f.rank != 0 {
		// keep heartbeating until rank 0 published the outcome, or the lapse
		// of this rank reads as a failure
		if err == nil {
			if _, werr := etcdutil.WaitJobDone(f.etcdClient, f.name, nil); werr != nil {
				f.log.Printf("WaitJobDone failed: %v", werr)
			}
		}
		return
	}
	status := etcdutil.StatusDone
	if err != nil {
		status = etcdutil.StatusFailed
	}
	if serr := etcdutil.SetJobStatus(f.etcdClient, f.name, status); serr != nil {
		f.log.Printf("SetJobStatus(%s) failed: %v", status, serr)
	}
	if f.server == nil {
		return
	}
	if err != nil {
		f.server.Stop()
	} else {
		f.server.GracefulStop()
	}
}
