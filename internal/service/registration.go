// Package service contains the registration, face verification and OTP flows.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
	"github.com/hamzaharrayhan/face-recognition-login/internal/face"
	"github.com/hamzaharrayhan/face-recognition-login/internal/imaging"
	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
	"github.com/hamzaharrayhan/face-recognition-login/internal/repository"
)

// ImageContentType is stored alongside every reference image.
const ImageContentType = "image/jpg"

// RegistrationService enrolls new identities.
type RegistrationService interface {
	// Register stores exactly three reference images for a new identity.
	Register(ctx context.Context, fullName string, key model.IdentityKey, images [][]byte) error
}

// RegistrationServiceImpl implements RegistrationService.
type RegistrationServiceImpl struct {
	identities repository.IdentityRepository
	images     repository.ImageStore
	encoder    face.Encoder
	maxDim     int
}

// NewRegistrationService constructs RegistrationService. maxDim bounds the
// image size sent to the encoder; zero disables downscaling.
func NewRegistrationService(identities repository.IdentityRepository, images repository.ImageStore, encoder face.Encoder, maxDim int) *RegistrationServiceImpl {
	return &RegistrationServiceImpl{identities: identities, images: images, encoder: encoder, maxDim: maxDim}
}

// Register validates every image before writing anything. Blobs already
// written are not removed if a later write fails.
func (s *RegistrationServiceImpl) Register(ctx context.Context, fullName string, key model.IdentityKey, images [][]byte) error {
	if len(images) != model.ReferenceImageCount {
		return fmt.Errorf("%w: want %d face images, got %d", errs.ErrValidation, model.ReferenceImageCount, len(images))
	}

	_, err := s.identities.Get(ctx, key)
	switch {
	case err == nil:
		return errs.ErrAlreadyRegistered
	case !errors.Is(err, errs.ErrNotFound):
		return fmt.Errorf("%w: %v", errs.ErrStorageRead, err)
	}

	for i, data := range images {
		img, err := imaging.Prepare(data, s.maxDim)
		if err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		encs, err := s.encoder.Encode(ctx, img)
		if err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		if len(encs) == 0 {
			return fmt.Errorf("image %d: %w", i, errs.ErrNoFaceDetected)
		}
	}

	refs := make([]string, 0, len(images))
	for _, data := range images {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		ref, err := s.images.Put(ctx, fmt.Sprintf("%s-%x.jpg", key.PhoneNumber, id.Bytes()), data, ImageContentType)
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrImageWrite, err)
		}
		refs = append(refs, ref)
	}

	err = s.identities.Create(ctx, &model.Identity{Key: key, FullName: fullName, FaceImages: refs})
	switch {
	case errors.Is(err, errs.ErrAlreadyRegistered):
		return err
	case err != nil:
		return fmt.Errorf("%w: %v", errs.ErrStorageWrite, err)
	}
	return nil
}
