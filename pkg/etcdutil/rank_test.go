package etcdutil

import (
	"strconv"
	"testing"
)

func TestOccupyRank(t *testing.T) {
	job := "TestOccupyRank"
	client := NewTestClient(t, job)
	defer client.Delete(JobPath(job), true)

	for r := 0; r < 3; r++ {
		if _, err := client.Create(RankPath(job, r), FreeRank, 0); err != nil {
			t.Fatalf("etcdClient.Create failed: %v", err)
		}
	}
	for want := 0; want < 3; want++ {
		addr := "127.0.0.1:" + strconv.Itoa(4000+want)
		rank, err := OccupyRank(client, job, addr)
		if err != nil {
			t.Fatalf("OccupyRank failed: %v", err)
		}
		if rank != want {
			t.Errorf("occupied rank %d, want %d", rank, want)
		}
		got, err := GetAddress(client, job, rank)
		if err != nil || got != addr {
			t.Errorf("rank %d address = %q (%v), want %q", rank, got, err, addr)
		}
	}
	if _, err := OccupyRank(client, job, "late"); err == nil {
		t.Error("occupied a rank of a full job")
	}
	if ok, err := TryOccupyRank(client, job, 1, "again"); ok || err != nil {
		t.Errorf("TryOccupyRank on taken rank = %v, %v", ok, err)
	}
}

func TestWaitCoordinator(t *testing.T) {
	job := "TestWaitCoordinator"
	client := NewTestClient(t, job)
	defer client.Delete(JobPath(job), true)

	addrC := make(chan string, 1)
	errC := make(chan error, 1)
	go func() {
		addr, err := WaitCoordinator(client, job, nil)
		addrC <- addr
		errC <- err
	}()
	if err := SetCoordinator(client, job, "127.0.0.1:4242"); err != nil {
		t.Fatalf("SetCoordinator failed: %v", err)
	}
	if addr, err := <-addrC, <-errC; err != nil || addr != "127.0.0.1:4242" {
		t.Fatalf("WaitCoordinator = %q, %v", addr, err)
	}
}
