package etcdutil

import (
	"log"
	"strconv"

	"github.com/coreos/go-etcd/etcd"
)

func SetProgress(client *etcd.Client, job string, step uint64) error {
	_, err := client.Set(ProgressPath(job), strconv.FormatUint(step, 10), 0)
	return err
}

// WatchProgress sends every published step to progressC until stop.
func WatchProgress(client *etcd.Client, job string, progressC chan<- uint64, stop chan bool) {
	receiver := make(chan *etcd.Response, 1)
	go client.Watch(ProgressPath(job), 0, false, receiver, stop)
	go func() {
		for resp := range receiver {
			if resp.Action != "set" && resp.Action != "create" {
				continue
			}
			step, err := strconv.ParseUint(resp.Node.Value, 10, 64)
			if err != nil {
				log.Printf("etcdutil: can't parse progress %q from etcd", resp.Node.Value)
				continue
			}
			progressC <- step
		}
	}()
}
