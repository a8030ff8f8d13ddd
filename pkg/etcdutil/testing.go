package etcdutil

import (
	"testing"

	"github.com/coreos/go-etcd/etcd"
)

// TestEtcdURL is where tests expect a running etcd.
const TestEtcdURL = "http://localhost:4001"

// NewTestClient returns a client of the local test etcd with the layout of
// job wiped, or skips the test if no etcd answers.
func NewTestClient(t *testing.T, job string) *etcd.Client {
	client := etcd.NewClient([]string{TestEtcdURL})
	if _, err := client.Get("/", false, false); err != nil {
		t.Skipf("no etcd at %s: %v", TestEtcdURL, err)
	}
	client.Delete(JobPath(job), true)
	return client
}
