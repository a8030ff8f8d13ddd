package integration

import (
	"net"
	"testing"

	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/framework"
	"golang.org/x/net/context"
)

func createListener(t *testing.T) net.Listener {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen(\"tcp4\", \"\") failed: %v", err)
	}
	return l
}

// drive starts one worker process of the job and sends its outcome to errC.
func drive(t *testing.T, jobName string, etcds []string, builder famo.WorkloadBuilder, errC chan<- error) {
	bootstrap := framework.NewBootStrap(jobName, etcds, createListener(t), nil)
	bootstrap.SetWorkloadBuilder(builder)
	errC <- bootstrap.Start(context.Background())
}
