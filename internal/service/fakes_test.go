package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"time"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
	"github.com/hamzaharrayhan/face-recognition-login/internal/face"
	"github.com/hamzaharrayhan/face-recognition-login/internal/limiter"
	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
	"github.com/hamzaharrayhan/face-recognition-login/internal/repository"
	"github.com/hamzaharrayhan/face-recognition-login/internal/sms"
)

var testKey = model.IdentityKey{PhoneNumber: "5551234", CountryCode: "1"}

type fakeIdentities struct {
	byKey map[model.IdentityKey]*model.Identity

	getErr    error
	createErr error
	setOTPErr error

	createCalls int
	setOTPCalls int
}

var _ repository.IdentityRepository = (*fakeIdentities)(nil)

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{byKey: map[model.IdentityKey]*model.Identity{}}
}

func (f *fakeIdentities) Get(_ context.Context, key model.IdentityKey) (*model.Identity, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	id, ok := f.byKey[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *id
	if id.OTP != nil {
		otp := *id.OTP
		c.OTP = &otp
	}
	return &c, nil
}

func (f *fakeIdentities) Create(_ context.Context, id *model.Identity) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byKey[id.Key]; ok {
		return errs.ErrAlreadyRegistered
	}
	c := *id
	f.byKey[id.Key] = &c
	return nil
}

func (f *fakeIdentities) SetOTP(_ context.Context, key model.IdentityKey, otp model.OTP) error {
	f.setOTPCalls++
	if f.setOTPErr != nil {
		return f.setOTPErr
	}
	id, ok := f.byKey[key]
	if !ok {
		return errs.ErrNotFound
	}
	id.OTP = &otp
	return nil
}

type fakeImages struct {
	blobs  map[string][]byte
	putErr error
	getErr error
	puts   []string
}

var _ repository.ImageStore = (*fakeImages)(nil)

func newFakeImages() *fakeImages { return &fakeImages{blobs: map[string][]byte{}} }

func (f *fakeImages) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	ref := "mem://" + key
	f.blobs[ref] = data
	f.puts = append(f.puts, key)
	return ref, nil
}

func (f *fakeImages) Get(_ context.Context, ref string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.blobs[ref]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return b, nil
}

// fakeEncoder identifies images by pixel width and returns the encodings registered for it.
type fakeEncoder struct {
	byWidth map[int][]model.FaceEncoding
	err     error
	calls   int
}

var _ face.Encoder = (*fakeEncoder)(nil)

func (f *fakeEncoder) Encode(_ context.Context, img image.Image) ([]model.FaceEncoding, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byWidth[img.Bounds().Dx()], nil
}

// pngOfWidth returns a valid PNG whose width identifies it to fakeEncoder.
func pngOfWidth(w int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, 1))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type sent struct{ to, body string }

type fakeSender struct {
	err  error
	id   string
	sent []sent
}

var _ sms.Sender = (*fakeSender)(nil)

func (f *fakeSender) Send(_ context.Context, to, body string) (string, error) {
	f.sent = append(f.sent, sent{to, body})
	if f.err != nil {
		return "", f.err
	}
	if f.id == "" {
		return "SM-test", nil
	}
	return f.id, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, model.IdentityKey, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, model.IdentityKey, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, model.IdentityKey, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakeCache struct {
	data   map[string]model.FaceEncoding
	getErr error
	sets   int
}

var _ repository.EncodingCache = (*fakeCache)(nil)

func (c *fakeCache) Get(_ context.Context, ref string) (model.FaceEncoding, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	e, ok := c.data[ref]
	return e, ok, nil
}

func (c *fakeCache) Set(_ context.Context, ref string, enc model.FaceEncoding, _ time.Duration) error {
	c.sets++
	c.data[ref] = enc
	return nil
}

// fakeOTP records Issue calls for verification tests.
type fakeOTP struct {
	issue    model.OTPIssue
	issueErr error
	calls    int
	resend   []bool
}

var _ OTPService = (*fakeOTP)(nil)

func (f *fakeOTP) Issue(_ context.Context, _ model.IdentityKey, resend bool) (model.OTPIssue, error) {
	f.calls++
	f.resend = append(f.resend, resend)
	return f.issue, f.issueErr
}
func (f *fakeOTP) Validate(context.Context, model.IdentityKey, int) error {
	return errors.New("not used")
}
func (f *fakeOTP) ValidateFromIP(context.Context, model.IdentityKey, int, string) (model.Tokens, error) {
	return model.Tokens{}, errors.New("not used")
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }
