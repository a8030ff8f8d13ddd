package etcdutil

import (
	"path"
	"strconv"
)

// The directory layout we keep in etcd for one job:
//	/{job}/config -> job configuration (json)
//	/{job}/status -> "running", "done" or "failed"
//	/{job}/progress -> last step at which the task weights were updated
//	/{job}/coordinator -> host:port of the collective server, held by rank 0
//	/{job}/ranks/{rank} -> host:port of the process holding the rank, "empty" if free
//	/{job}/healthy/{rank} -> ttl key refreshed by the rank's heartbeat

const (
	RanksDir    = "ranks"
	HealthyDir  = "healthy"
	Config      = "config"
	Status      = "status"
	Progress    = "progress"
	Coordinator = "coordinator"

	FreeRank = "empty"

	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

func JobPath(job string) string {
	return path.Join("/", job)
}

func ConfigPath(job string) string {
	return path.Join("/", job, Config)
}

func JobStatusPath(job string) string {
	return path.Join("/", job, Status)
}

func ProgressPath(job string) string {
	return path.Join("/", job, Progress)
}

func CoordinatorPath(job string) string {
	return path.Join("/", job, Coordinator)
}

func RankDirPath(job string) string {
	return path.Join("/", job, RanksDir)
}

func RankPath(job string, rank int) string {
	return path.Join(RankDirPath(job), strconv.Itoa(rank))
}

func HealthyDirPath(job string) string {
	return path.Join("/", job, HealthyDir)
}

func HealthyPath(job string, rank int) string {
	return path.Join(HealthyDirPath(job), strconv.Itoa(rank))
}
