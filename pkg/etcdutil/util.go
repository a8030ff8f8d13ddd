package etcdutil

import (
	"strings"

	"github.com/coreos/go-etcd/etcd"
)

// Error codes of the etcd v2 keys API.
const (
	errorCodeKeyNotFound = 100
	errorCodeTestFailed  = 101
	errorCodeNodeExist   = 105
)

func IsKeyNotFound(err error) bool {
	return hasCode(err, errorCodeKeyNotFound, "Key not found")
}

func IsCompareFailed(err error) bool {
	return hasCode(err, errorCodeTestFailed, "Compare failed")
}

func IsNodeExist(err error) bool {
	return hasCode(err, errorCodeNodeExist, "Key already exists")
}

func hasCode(err error, code int, message string) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*etcd.EtcdError); ok {
		return e.ErrorCode == code
	}
	return strings.Contains(err.Error(), message)
}

func ListKeys(nodes []*etcd.Node) []string {
	res := make([]string, len(nodes))
	for i, n := range nodes {
		res[i] = n.Key
	}
	return res
}
