package etcdutil

import (
	"github.com/coreos/go-etcd/etcd"
)

func SetJobStatus(client *etcd.Client, job, status string) error {
	_, err := client.Set(JobStatusPath(job), status, 0)
	return err
}

func GetJobStatus(client *etcd.Client, job string) (string, error) {
	resp, err := client.Get(JobStatusPath(job), false, false)
	if err != nil {
		return "", err
	}
	return resp.Node.Value, nil
}

// WaitJobDone blocks until the job status leaves "running" and returns the
// final status.
func WaitJobDone(client *etcd.Client, job string, stop chan bool) (string, error) {
	resp, err := client.Get(JobStatusPath(job), false, false)
	if err != nil {
		return "", err
	}
	waitIndex := resp.EtcdIndex + 1
	status := resp.Node.Value
	for status == StatusRunning {
		resp, err = client.Watch(JobStatusPath(job), waitIndex, false, nil, stop)
		if err != nil {
			return "", err
		}
		status = resp.Node.Value
		waitIndex = resp.EtcdIndex + 1
	}
	return status, nil
}

func PutConfig(client *etcd.Client, job string, buf []byte) error {
	_, err := client.Create(ConfigPath(job), string(buf), 0)
	return err
}

func GetConfig(client *etcd.Client, job string) ([]byte, error) {
	resp, err := client.Get(ConfigPath(job), false, false)
	if err != nil {
		return nil, err
	}
	return []byte(resp.Node.Value), nil
}
