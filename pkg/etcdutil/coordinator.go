package etcdutil

import (
	"github.com/coreos/go-etcd/etcd"
	"github.com/pkg/errors"
)

func SetCoordinator(client *etcd.Client, job, addr string) error {
	_, err := client.Create(CoordinatorPath(job), addr, 0)
	return err
}

// WaitCoordinator returns the collective server address, watching for it if
// rank 0 has not published it yet.
func WaitCoordinator(client *etcd.Client, job string, stop chan bool) (string, error) {
	return waitValue(client, CoordinatorPath(job), stop)
}

func waitValue(client *etcd.Client, key string, stop chan bool) (string, error) {
	resp, err := client.Get(key, false, false)
	if err == nil {
		return resp.Node.Value, nil
	}
	if !IsKeyNotFound(err) {
		return "", err
	}
	var waitIndex uint64
	if e, ok := err.(*etcd.EtcdError); ok {
		waitIndex = e.Index + 1
	}
	for {
		resp, err = client.Watch(key, waitIndex, false, nil, stop)
		if err != nil {
			return "", errors.Wrapf(err, "etcdutil: watch %s", key)
		}
		if resp.Action == "set" || resp.Action == "create" || resp.Action == "compareAndSwap" {
			return resp.Node.Value, nil
		}
		waitIndex = resp.EtcdIndex + 1
	}
}
