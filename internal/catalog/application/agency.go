package application

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"travelhub/internal/catalog/domain"
	"travelhub/internal/catalog/ports"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
)

// AgencyService adds the agency views that span several collections
type AgencyService struct {
	*Service[domain.Agency, *domain.Agency]
	agencies     ports.Store[domain.Agency]
	destinations ports.Store[domain.Destination]
	hotels       ports.Store[domain.Hotel]
	categories   ports.Store[domain.Category]
	reviews      ports.Store[domain.Review]
	users        ports.UserDirectory
}

// NewAgencyService creates a new agency service. users may be nil; reviews
// in Details then carry only the author id.
func NewAgencyService(
	agencies ports.Store[domain.Agency],
	destinations ports.Store[domain.Destination],
	hotels ports.Store[domain.Hotel],
	categories ports.Store[domain.Category],
	reviews ports.Store[domain.Review],
	users ports.UserDirectory,
	log *logger.Logger,
) *AgencyService {
	svc := &AgencyService{
		agencies:     agencies,
		destinations: destinations,
		hotels:       hotels,
		categories:   categories,
		reviews:      reviews,
		users:        users,
	}
	svc.Service = NewService[domain.Agency, *domain.Agency](agencies, "agency", []string{"name", "description"}, svc.checkCategory, log)
	return svc
}

func (s *AgencyService) checkCategory(ctx context.Context, agency *domain.Agency) error {
	if agency.Category == nil {
		return nil
	}
	if _, err := s.categories.Get(ctx, agency.Category.Hex()); err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return errors.NewValidation("category does not exist", map[string]string{"category": agency.Category.Hex()})
		}
		return err
	}
	return nil
}

// Details returns the agency with its destinations, hotels, categories and reviews
func (s *AgencyService) Details(ctx context.Context, id string) (*domain.AgencyDetails, error) {
	agency, err := s.agencies.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	owned := ports.Filter{"agency": agency.ID}

	destinations, err := s.destinations.Find(ctx, owned, 0)
	if err != nil {
		return nil, err
	}
	hotels, err := s.hotels.Find(ctx, owned, 0)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.Find(ctx, owned, 0)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.Find(ctx, owned, 0)
	if err != nil {
		return nil, err
	}
	s.resolveAuthors(ctx, reviews)

	return &domain.AgencyDetails{
		Agency:       agency,
		Destinations: destinations,
		Hotels:       hotels,
		Categories:   categories,
		Reviews:      reviews,
	}, nil
}

// resolveAuthors fills in review usernames; a lookup failure leaves them empty
func (s *AgencyService) resolveAuthors(ctx context.Context, reviews []*domain.Review) {
	if s.users == nil || len(reviews) == 0 {
		return
	}

	seen := make(map[string]bool, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if r.User != "" && !seen[r.User] {
			seen[r.User] = true
			ids = append(ids, r.User)
		}
	}

	names, err := s.users.Usernames(ctx, ids)
	if err != nil {
		s.log.WithContext(ctx).Warn("failed to resolve review authors", zap.Error(err))
		return
	}
	for _, r := range reviews {
		r.Username = names[r.User]
	}
}

// ByCategory lists agencies in the category with the given name
func (s *AgencyService) ByCategory(ctx context.Context, name string) ([]*domain.Agency, error) {
	category, err := s.categories.FindOne(ctx, ports.Filter{"name": name})
	if err != nil {
		return nil, err
	}
	return s.agencies.Find(ctx, ports.Filter{"category": category.ID}, 0)
}

// AgencyExists builds a ReferenceCheck requiring the agency returned by ref to exist
func AgencyExists[T any](agencies ports.Store[domain.Agency], ref func(*T) primitive.ObjectID) ReferenceCheck[T] {
	return func(ctx context.Context, doc *T) error {
		id := ref(doc)
		if id.IsZero() {
			return domain.ErrInvalidAgencyID
		}
		if _, err := agencies.Get(ctx, id.Hex()); err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return errors.NewValidation("agency does not exist", map[string]string{"agency": id.Hex()})
			}
			return err
		}
		return nil
	}
}
