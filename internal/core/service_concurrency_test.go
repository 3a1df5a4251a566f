package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"colonyledger/pkg/domain"
)

// Two pending transfer requests for the same animal approved concurrently:
// exactly one completes, the loser surfaces ConflictError and stays pending.
func TestConcurrentTransferApprovalsSerialize(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	first := TransferRequest{AnimalID: fix.male.ID, SourceCageID: fix.cage1.ID, DestinationCageID: fix.cage2.ID}
	first.RequesterID = "tech-1"
	second := TransferRequest{AnimalID: fix.male.ID, SourceCageID: fix.cage1.ID, DestinationCageID: fix.cage3.ID}
	second.RequesterID = "tech-1"

	reqA, _, err := fix.svc.SubmitTransferRequest(ctx, first)
	if err != nil {
		t.Fatalf("submit first: %v", err)
	}
	reqB, _, err := fix.svc.SubmitTransferRequest(ctx, second)
	if err != nil {
		t.Fatalf("submit second: %v", err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, id := range []string{reqA.ID, reqB.ID} {
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = fix.svc.ApproveRequest(ctx, id, "manager-1")
		}(i, id)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict domain.ConflictError
		if errors.As(err, &conflict) {
			conflicted++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d conflicts", succeeded, conflicted)
	}

	// The loser remains pending; the winner is completed.
	var pending, completed int
	for _, id := range []string{reqA.ID, reqB.ID} {
		stored, err := fix.svc.GetRequest(ctx, id)
		if err != nil {
			t.Fatalf("get request: %v", err)
		}
		switch stored.CurrentStatus() {
		case StatusPending:
			pending++
		case StatusCompleted:
			completed++
		default:
			t.Fatalf("unexpected status %s", stored.CurrentStatus())
		}
	}
	if pending != 1 || completed != 1 {
		t.Fatalf("expected one pending and one completed, got %d/%d", pending, completed)
	}

	// Invariant: at most one open interval.
	var open int
	for _, interval := range fix.svc.OccupancyHistory(ctx, fix.male.ID) {
		if interval.Open() {
			open++
		}
	}
	if open != 1 {
		t.Fatalf("expected exactly one open interval, got %d", open)
	}
}

// A cancel racing an approve of the same request: one observably wins, the
// loser gets InvalidStateError or NotFoundError, and the request is never
// both completed and deleted.
func TestCancelRacesApprove(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	req := TransferRequest{AnimalID: fix.male.ID, SourceCageID: fix.cage1.ID, DestinationCageID: fix.cage2.ID}
	req.RequesterID = "tech-1"
	submitted, _, err := fix.svc.SubmitTransferRequest(ctx, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	var wg sync.WaitGroup
	var approveErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, approveErr = fix.svc.ApproveRequest(ctx, submitted.ID, "manager-1")
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = fix.svc.CancelRequest(ctx, submitted.ID, "tech-1")
	}()
	wg.Wait()

	if approveErr == nil && cancelErr == nil {
		t.Fatalf("both approve and cancel succeeded")
	}
	if approveErr != nil && cancelErr != nil {
		t.Fatalf("neither won: approve=%v cancel=%v", approveErr, cancelErr)
	}

	if approveErr == nil {
		stored, err := fix.svc.GetRequest(ctx, submitted.ID)
		if err != nil {
			t.Fatalf("winner approved but request missing: %v", err)
		}
		if stored.CurrentStatus() != StatusCompleted {
			t.Fatalf("expected completed, got %s", stored.CurrentStatus())
		}
	} else {
		if _, err := fix.svc.GetRequest(ctx, submitted.ID); err == nil {
			t.Fatalf("cancel won but request still present")
		}
	}
}
