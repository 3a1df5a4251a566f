package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"colonyledger/pkg/domain"
)

// SubmitTransferRequest validates and records a pending transfer request.
// Submission never touches the occupancy ledger or animal lifecycle.
func (s *Service) SubmitTransferRequest(ctx context.Context, req TransferRequest) (TransferRequest, Result, error) {
	var created TransferRequest
	var res Result
	err := s.instrument(ctx, "submit_transfer_request", func(ctx context.Context) (string, error) {
		if req.RequesterID == "" {
			return "", domain.ValidationError{Message: "requester is required"}
		}
		if req.SourceCageID == req.DestinationCageID {
			return "", domain.ValidationError{Message: "source and destination cages must differ"}
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindAnimal(req.AnimalID); !ok {
				return domain.NotFoundError{Entity: domain.EntityAnimal, ID: req.AnimalID}
			}
			if _, ok := tx.FindCage(req.SourceCageID); !ok {
				return domain.NotFoundError{Entity: domain.EntityCage, ID: req.SourceCageID}
			}
			if _, ok := tx.FindCage(req.DestinationCageID); !ok {
				return domain.NotFoundError{Entity: domain.EntityCage, ID: req.DestinationCageID}
			}
			req.Status = StatusPending
			req.RequestedAt = s.clock.Now()
			req.ApprovedAt = nil
			var txErr error
			created, txErr = tx.CreateTransferRequest(req)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// SubmitBreedingRequest validates and records a pending breeding request.
// The referenced animals must carry the stated sexes.
func (s *Service) SubmitBreedingRequest(ctx context.Context, req BreedingRequest) (BreedingRequest, Result, error) {
	var created BreedingRequest
	var res Result
	err := s.instrument(ctx, "submit_breeding_request", func(ctx context.Context) (string, error) {
		if req.RequesterID == "" {
			return "", domain.ValidationError{Message: "requester is required"}
		}
		if req.MaleID == req.FemaleID {
			return "", domain.ValidationError{Message: "a pairing needs two distinct animals"}
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			male, ok := tx.FindAnimal(req.MaleID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityAnimal, ID: req.MaleID}
			}
			female, ok := tx.FindAnimal(req.FemaleID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityAnimal, ID: req.FemaleID}
			}
			if male.Sex != domain.SexMale {
				return domain.ValidationError{Message: fmt.Sprintf("animal %s is not male", male.ID)}
			}
			if female.Sex != domain.SexFemale {
				return domain.ValidationError{Message: fmt.Sprintf("animal %s is not female", female.ID)}
			}
			if _, ok := tx.FindCage(req.CageID); !ok {
				return domain.NotFoundError{Entity: domain.EntityCage, ID: req.CageID}
			}
			req.Status = StatusPending
			req.RequestedAt = s.clock.Now()
			req.ApprovedAt = nil
			var txErr error
			created, txErr = tx.CreateBreedingRequest(req)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// SubmitCullingRequest validates and records a pending culling request.
func (s *Service) SubmitCullingRequest(ctx context.Context, req CullingRequest) (CullingRequest, Result, error) {
	var created CullingRequest
	var res Result
	err := s.instrument(ctx, "submit_culling_request", func(ctx context.Context) (string, error) {
		if req.RequesterID == "" {
			return "", domain.ValidationError{Message: "requester is required"}
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			animal, ok := tx.FindAnimal(req.AnimalID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityAnimal, ID: req.AnimalID}
			}
			if animal.State == StateDeceased {
				return domain.ValidationError{Message: fmt.Sprintf("animal %s is already deceased", animal.ID)}
			}
			req.Status = StatusPending
			req.RequestedAt = s.clock.Now()
			req.ApprovedAt = nil
			var txErr error
			created, txErr = tx.CreateCullingRequest(req)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// ApproveRequest executes the approval of a pending request as one atomic
// transaction: kind-specific precondition checks against current data,
// kind-specific side effects, the terminal status flip, and the notification.
// A precondition violated by a concurrent change surfaces as ConflictError
// with the request left pending; approval never downgrades to a rejection.
func (s *Service) ApproveRequest(ctx context.Context, requestID, approverID string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "approve_request", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			request, ok := tx.FindRequest(requestID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityTransferRequest, ID: requestID}
			}
			if request.CurrentStatus() != StatusPending {
				return domain.InvalidStateError{
					Entity: requestEntity(request.Kind()),
					ID:     requestID,
					Detail: fmt.Sprintf("request is %s, not pending", request.CurrentStatus()),
				}
			}

			now := s.clock.Now()
			switch req := request.(type) {
			case TransferRequest:
				if err := s.approveTransfer(tx, req); err != nil {
					return err
				}
				if _, err := tx.UpdateTransferRequest(req.ID, completeRequest(now)); err != nil {
					return err
				}
			case BreedingRequest:
				if err := s.approveBreeding(tx, req); err != nil {
					return err
				}
				if _, err := tx.UpdateBreedingRequest(req.ID, completeBreeding(now)); err != nil {
					return err
				}
			case CullingRequest:
				if err := s.approveCulling(tx, req); err != nil {
					return err
				}
				if _, err := tx.UpdateCullingRequest(req.ID, completeCulling(now)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported request kind %s", request.Kind())
			}

			_, err := tx.CreateNotification(Notification{
				RecipientID: request.Requester(),
				Message:     fmt.Sprintf("Your %s request has been approved.", request.Kind()),
				RequestKind: request.Kind(),
				RequestID:   requestID,
			})
			return err
		})
		return requestID, err
	})
	return res, err
}

func completeRequest(now time.Time) func(*TransferRequest) error {
	return func(r *TransferRequest) error {
		r.Status = StatusCompleted
		at := now
		r.ApprovedAt = &at
		return nil
	}
}

func completeBreeding(now time.Time) func(*BreedingRequest) error {
	return func(r *BreedingRequest) error {
		r.Status = StatusCompleted
		at := now
		r.ApprovedAt = &at
		return nil
	}
}

func completeCulling(now time.Time) func(*CullingRequest) error {
	return func(r *CullingRequest) error {
		r.Status = StatusCompleted
		at := now
		r.ApprovedAt = &at
		return nil
	}
}

// approveTransfer re-checks preconditions against current data and moves the
// animal. A competing completed request shows up here as a conflict.
func (s *Service) approveTransfer(tx Transaction, req TransferRequest) error {
	animal, ok := tx.FindAnimal(req.AnimalID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAnimal, ID: req.AnimalID}
	}
	if animal.State == StateDeceased {
		return domain.ConflictError{Entity: domain.EntityAnimal, ID: animal.ID, Detail: "animal is deceased"}
	}
	open, housed := tx.FindOpenInterval(req.AnimalID)
	if housed && open.CageID == req.DestinationCageID {
		return domain.ConflictError{Entity: domain.EntityAnimal, ID: animal.ID, Detail: "animal already at destination"}
	}
	if housed && open.CageID != req.SourceCageID {
		return domain.ConflictError{
			Entity: domain.EntityAnimal,
			ID:     animal.ID,
			Detail: fmt.Sprintf("animal moved to cage %s since submission", open.CageID),
		}
	}
	_, err := moveAnimal(tx, req.AnimalID, req.DestinationCageID, s.clock.Now())
	return err
}

// approveBreeding re-checks that both animals are alive and correctly sexed,
// moves both into the target cage, flips both to breeding, and opens the
// pairing record.
func (s *Service) approveBreeding(tx Transaction, req BreedingRequest) error {
	now := s.clock.Now()
	for _, animalID := range []string{req.MaleID, req.FemaleID} {
		animal, ok := tx.FindAnimal(animalID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityAnimal, ID: animalID}
		}
		if animal.State != StateAlive {
			return domain.ConflictError{
				Entity: domain.EntityAnimal,
				ID:     animalID,
				Detail: fmt.Sprintf("animal is %s, not alive", animal.State),
			}
		}
	}
	for _, animalID := range []string{req.MaleID, req.FemaleID} {
		if open, housed := tx.FindOpenInterval(animalID); !housed || open.CageID != req.CageID {
			if _, err := moveAnimal(tx, animalID, req.CageID, now); err != nil {
				return err
			}
		}
		if _, err := transitionAnimal(tx, animalID, StateBreeding, time.Time{}); err != nil {
			return err
		}
	}
	_, err := tx.CreateBreedingPair(BreedingPair{
		MaleID:   req.MaleID,
		FemaleID: req.FemaleID,
		CageID:   req.CageID,
		Start:    now,
	})
	return err
}

// approveCulling re-checks the animal is not already deceased, flips it to
// deceased with the cull timestamp, and closes its open interval without
// opening a new one.
func (s *Service) approveCulling(tx Transaction, req CullingRequest) error {
	animal, ok := tx.FindAnimal(req.AnimalID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAnimal, ID: req.AnimalID}
	}
	if animal.State == StateDeceased {
		return domain.ConflictError{Entity: domain.EntityAnimal, ID: animal.ID, Detail: "animal is already deceased"}
	}
	now := s.clock.Now()
	if _, err := transitionAnimal(tx, req.AnimalID, StateDeceased, now); err != nil {
		return err
	}
	return closeOpenInterval(tx, req.AnimalID, now)
}

// RejectRequest moves a pending request to the terminal rejected status and
// emits a rejection notification. It has no occupancy or lifecycle effects.
func (s *Service) RejectRequest(ctx context.Context, requestID, approverID, comments string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "reject_request", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			request, ok := tx.FindRequest(requestID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityTransferRequest, ID: requestID}
			}
			if request.CurrentStatus() != StatusPending {
				return domain.InvalidStateError{
					Entity: requestEntity(request.Kind()),
					ID:     requestID,
					Detail: fmt.Sprintf("request is %s, not pending", request.CurrentStatus()),
				}
			}

			now := s.clock.Now()
			var txErr error
			switch request.Kind() {
			case KindTransfer:
				_, txErr = tx.UpdateTransferRequest(requestID, func(r *TransferRequest) error {
					r.Status = StatusRejected
					at := now
					r.ApprovedAt = &at
					r.Comments = joinComments(r.Comments, comments)
					return nil
				})
			case KindBreeding:
				_, txErr = tx.UpdateBreedingRequest(requestID, func(r *BreedingRequest) error {
					r.Status = StatusRejected
					at := now
					r.ApprovedAt = &at
					r.Comments = joinComments(r.Comments, comments)
					return nil
				})
			case KindCulling:
				_, txErr = tx.UpdateCullingRequest(requestID, func(r *CullingRequest) error {
					r.Status = StatusRejected
					at := now
					r.ApprovedAt = &at
					r.Comments = joinComments(r.Comments, comments)
					return nil
				})
			}
			if txErr != nil {
				return txErr
			}

			_, txErr = tx.CreateNotification(Notification{
				RecipientID: request.Requester(),
				Message:     rejectionMessage(request.Kind(), comments),
				RequestKind: request.Kind(),
				RequestID:   requestID,
			})
			return txErr
		})
		return requestID, err
	})
	return res, err
}

func rejectionMessage(kind RequestKind, comments string) string {
	if strings.TrimSpace(comments) == "" {
		return fmt.Sprintf("Your %s request was rejected.", kind)
	}
	return fmt.Sprintf("Your %s request was rejected: %s", kind, comments)
}

func joinComments(existing, added string) string {
	added = strings.TrimSpace(added)
	if added == "" {
		return existing
	}
	if existing == "" {
		return added
	}
	return existing + "\n" + added
}

// CancelRequest deletes a pending request. Only the requester may cancel,
// and only while the request is pending; a concurrent approval wins the race
// and turns the cancel into InvalidStateError.
func (s *Service) CancelRequest(ctx context.Context, requestID, actorID string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "cancel_request", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			request, ok := tx.FindRequest(requestID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityTransferRequest, ID: requestID}
			}
			if request.Requester() != actorID {
				return domain.PermissionError{Actor: actorID, Detail: "only the requester may cancel a request"}
			}
			if request.CurrentStatus() != StatusPending {
				return domain.InvalidStateError{
					Entity: requestEntity(request.Kind()),
					ID:     requestID,
					Detail: fmt.Sprintf("request is %s, not pending", request.CurrentStatus()),
				}
			}
			switch request.Kind() {
			case KindTransfer:
				return tx.DeleteTransferRequest(requestID)
			case KindBreeding:
				return tx.DeleteBreedingRequest(requestID)
			default:
				return tx.DeleteCullingRequest(requestID)
			}
		})
		return requestID, err
	})
	return res, err
}

// EndBreedingPair ends an active pairing: the end timestamp is stamped and
// members still in the breeding state revert to alive. A member culled while
// paired stays deceased. Occupancy is untouched; surviving animals stay in
// the pairing cage until a transfer moves them.
func (s *Service) EndBreedingPair(ctx context.Context, pairID string) (BreedingPair, Result, error) {
	var ended BreedingPair
	var res Result
	err := s.instrument(ctx, "end_breeding_pair", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			pair, ok := tx.FindBreedingPair(pairID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityBreedingPair, ID: pairID}
			}
			if !pair.Active() {
				return domain.InvalidStateError{Entity: domain.EntityBreedingPair, ID: pairID, Detail: "pairing already ended"}
			}
			now := s.clock.Now()
			var txErr error
			ended, txErr = tx.UpdateBreedingPair(pairID, func(p *BreedingPair) error {
				at := now
				p.End = &at
				return nil
			})
			if txErr != nil {
				return txErr
			}
			for _, animalID := range []string{pair.MaleID, pair.FemaleID} {
				member, found := tx.FindAnimal(animalID)
				if !found || member.State != StateBreeding {
					continue
				}
				if _, txErr = transitionAnimal(tx, animalID, StateAlive, time.Time{}); txErr != nil {
					return txErr
				}
			}
			return nil
		})
		return pairID, err
	})
	return ended, res, err
}

// GetRequest retrieves a request of any kind from committed state.
func (s *Service) GetRequest(_ context.Context, id string) (Request, error) {
	request, ok := s.store.GetRequest(id)
	if !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityTransferRequest, ID: id}
	}
	return request, nil
}

// OpenRequestsForAnimal lists pending requests whose subjects include the
// animal.
func (s *Service) OpenRequestsForAnimal(_ context.Context, animalID string) []Request {
	var out []Request
	for _, request := range s.store.ListRequests() {
		if request.CurrentStatus() != StatusPending {
			continue
		}
		for _, subject := range request.Subjects() {
			if subject == animalID {
				out = append(out, request)
				break
			}
		}
	}
	return out
}

// OpenRequestsForRequester lists pending requests owned by the requester.
func (s *Service) OpenRequestsForRequester(_ context.Context, requesterID string) []Request {
	var out []Request
	for _, request := range s.store.ListRequests() {
		if request.CurrentStatus() == StatusPending && request.Requester() == requesterID {
			out = append(out, request)
		}
	}
	return out
}

func requestEntity(kind RequestKind) EntityType {
	switch kind {
	case KindBreeding:
		return domain.EntityBreedingRequest
	case KindCulling:
		return domain.EntityCullingRequest
	default:
		return domain.EntityTransferRequest
	}
}
