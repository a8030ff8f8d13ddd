package framework

import (
	"time"

	"github.com/taskgraph/famo/pkg/etcdutil"
	"golang.org/x/net/context"
)

var (
	heartbeatInterval = 5 * time.Second
)

func (f *framework) heartbeat() {
	f.heartbeatStop = make(chan struct{})
	go func() {
		err := etcdutil.Heartbeat(f.etcdClient, f.name, f.rank, heartbeatInterval, f.heartbeatStop)
		if err != nil {
			f.log.Printf("heartbeat stopped: %v", err)
		}
	}()
}

func (f *framework) stopHeartbeat() {
	close(f.heartbeatStop)
	if err := etcdutil.StopHeartbeat(f.etcdClient, f.name, f.rank); err != nil {
		f.log.Printf("StopHeartbeat failed: %v", err)
	}
}

// watchJobFailure cancels the run once the job left the running state while
// this rank is still training. Collectives give no other way out of a round
// a dead rank never joins.
func (f *framework) watchJobFailure(ctx context.Context, cancel context.CancelFunc) {
	stop := make(chan bool, 1)
	go func() {
		<-ctx.Done()
		stop <- true
	}()
	status, err := etcdutil.WaitJobDone(f.etcdClient, f.name, stop)
	if err != nil {
		return
	}
	if status == etcdutil.StatusFailed {
		f.log.Printf("job %s marked %s, aborting", f.name, status)
		cancel()
	}
}
