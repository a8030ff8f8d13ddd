package etcdutil

import (
	"path"
	"sort"
	"strconv"

	"github.com/coreos/go-etcd/etcd"
	"github.com/pkg/errors"
)

// TryOccupyRank swaps a free rank slot to addr. It returns false if some
// other process got there first.
func TryOccupyRank(client *etcd.Client, job string, rank int, addr string) (bool, error) {
	_, err := client.CompareAndSwap(RankPath(job, rank), addr, 0, FreeRank, 0)
	if err == nil {
		return true, nil
	}
	if IsCompareFailed(err) {
		return false, nil
	}
	return false, err
}

// OccupyRank grabs the lowest free rank.
func OccupyRank(client *etcd.Client, job string, addr string) (int, error) {
	resp, err := client.Get(RankDirPath(job), true, false)
	if err != nil {
		return 0, errors.Wrapf(err, "etcdutil: list ranks of job %s", job)
	}
	ranks := make([]int, 0, len(resp.Node.Nodes))
	for _, n := range resp.Node.Nodes {
		r, err := strconv.Atoi(path.Base(n.Key))
		if err != nil {
			return 0, errors.Errorf("etcdutil: rank slot %s isn't an integer, layout corrupted", n.Key)
		}
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	for _, r := range ranks {
		ok, err := TryOccupyRank(client, job, r, addr)
		if err != nil {
			return 0, err
		}
		if ok {
			return r, nil
		}
	}
	return 0, errors.Errorf("etcdutil: no free rank left in job %s", job)
}

// GetAddress returns the address of the process holding rank.
func GetAddress(client *etcd.Client, job string, rank int) (string, error) {
	resp, err := client.Get(RankPath(job, rank), false, false)
	if err != nil {
		return "", err
	}
	return resp.Node.Value, nil
}
