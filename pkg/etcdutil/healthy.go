package etcdutil

import (
	"path"
	"strconv"
	"time"

	"github.com/coreos/go-etcd/etcd"
)

// heartbeat to etcd cluster until stop
func Heartbeat(client *etcd.Client, job string, rank int, interval time.Duration, stop chan struct{}) error {
	for {
		_, err := client.Set(HealthyPath(job, rank), "health", computeTTL(interval))
		if err != nil {
			return err
		}
		select {
		case <-time.After(interval):
		case <-stop:
			return nil
		}
	}
}

// WatchFailures reports the rank of every healthy key which expires or is
// deleted, until stop. A rank that finished and deleted its key on purpose
// shows up here too; the caller tells the two apart by job status.
func WatchFailures(client *etcd.Client, job string, failC chan<- int, stop chan bool) error {
	resp, err := client.Get(HealthyDirPath(job), false, false)
	var waitIndex uint64
	if err == nil {
		waitIndex = resp.EtcdIndex + 1
	} else if !IsKeyNotFound(err) {
		return err
	}
	for {
		resp, err = client.Watch(HealthyDirPath(job), waitIndex, true, nil, stop)
		if err != nil {
			// on client closing
			return err
		}
		waitIndex = resp.EtcdIndex + 1
		if resp.Action != "delete" && resp.Action != "expire" {
			continue
		}
		rank, err := strconv.Atoi(path.Base(resp.Node.Key))
		if err != nil {
			continue
		}
		failC <- rank
	}
}

func StopHeartbeat(client *etcd.Client, job string, rank int) error {
	_, err := client.Delete(HealthyPath(job, rank), false)
	return err
}

func computeTTL(interval time.Duration) uint64 {
	if interval/time.Second < 1 {
		return 3
	}
	return 3 * uint64(interval/time.Second)
}
