package application

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"travelhub/internal/catalog/domain"
	"travelhub/internal/catalog/ports"
	"travelhub/pkg/auth"
	"travelhub/pkg/logger"
)

// ReviewService manages agency reviews. Authorship comes from the caller,
// never from the request body.
type ReviewService struct {
	reviews ports.Store[domain.Review]
	check   ReferenceCheck[domain.Review]
	log     *logger.Logger
}

// NewReviewService creates a new review service
func NewReviewService(reviews ports.Store[domain.Review], agencies ports.Store[domain.Agency], log *logger.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		check:   AgencyExists(agencies, func(r *domain.Review) primitive.ObjectID { return r.Agency }),
		log:     log,
	}
}

// Create stores a review written by the caller
func (s *ReviewService) Create(ctx context.Context, identity auth.Identity, review *domain.Review) (*domain.Review, error) {
	if identity.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	review.User = identity.UserID
	review.Username = ""

	if err := s.check(ctx, review); err != nil {
		return nil, err
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("review created",
		zap.String("id", review.ID.Hex()),
		zap.String("agency", review.Agency.Hex()),
	)
	return review, nil
}

// List returns every review, or those of one agency when agencyID is set
func (s *ReviewService) List(ctx context.Context, agencyID string) ([]*domain.Review, error) {
	if agencyID == "" {
		return s.reviews.Find(ctx, nil, 0)
	}
	oid, err := primitive.ObjectIDFromHex(agencyID)
	if err != nil {
		return nil, domain.ErrInvalidAgencyID
	}
	return s.reviews.Find(ctx, ports.Filter{"agency": oid}, 0)
}

// Get returns one review
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	return s.reviews.Get(ctx, id)
}

// Delete removes a review; only its author or an admin may do so
func (s *ReviewService) Delete(ctx context.Context, identity auth.Identity, id string) error {
	if identity.IsZero() {
		return domain.ErrUnauthenticated
	}

	review, err := s.reviews.Get(ctx, id)
	if err != nil {
		return err
	}
	if !identity.IsAdmin() && review.User != identity.UserID {
		return domain.ErrReviewNotOwned
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}

	s.log.WithContext(ctx).Info("review deleted", zap.String("id", id))
	return nil
}
