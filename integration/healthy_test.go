package integration

import (
	"testing"
	"time"

	"github.com/taskgraph/famo/pkg/etcdutil"
)

func TestHeartbeat(t *testing.T) {
	name := "TestHeartbeat"
	client := etcdutil.NewTestClient(t, name)
	defer client.Delete(etcdutil.JobPath(name), true)

	rank := 1
	ttl := uint64(1)
	interval := time.Duration(ttl) * time.Second
	stop := make(chan struct{}, 1)

	client.Create(etcdutil.HealthyPath(name, rank), "health", ttl)
	time.Sleep(2 * interval)
	_, err := client.Get(etcdutil.HealthyPath(name, rank), false, false)
	if err == nil {
		t.Fatal("ttl node should expire")
	}

	go etcdutil.Heartbeat(client, name, rank, interval, stop)
	time.Sleep(5 * interval)
	_, err = client.Get(etcdutil.HealthyPath(name, rank), false, false)
	if err != nil {
		t.Fatalf("client.Get failed: %v", err)
	}

	close(stop)
	time.Sleep(5 * interval)
	_, err = client.Get(etcdutil.HealthyPath(name, rank), false, false)
	if err == nil {
		t.Fatal("ttl node should expire")
	}
}

func TestWatchFailures(t *testing.T) {
	name := "TestWatchFailures"
	client := etcdutil.NewTestClient(t, name)
	defer client.Delete(etcdutil.JobPath(name), true)

	rank := 2
	failC := make(chan int, 1)
	stop := make(chan bool, 1)
	client.Create(etcdutil.HealthyPath(name, rank), "health", 1)
	go etcdutil.WatchFailures(client, name, failC, stop)
	defer func() { stop <- true }()

	select {
	case failed := <-failC:
		if failed != rank {
			t.Fatalf("failed rank want = %d, get = %d", rank, failed)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no failure reported for an expired heartbeat")
	}
}
