// Package session holds the editor workflow for one browser: the loaded
// photo, the edited result, the last error and the action in flight.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mhpenta/mifoto"
	"github.com/mhpenta/mifoto/credential"
	"github.com/mhpenta/mifoto/quota"
)

// State is whether a photo is loaded.
type State string

const (
	StateNoImage     State = "no_image"
	StateImageLoaded State = "image_loaded"
)

// Activity is the action currently in flight.
type Activity string

const (
	ActivityIdle       Activity = "idle"
	ActivityGenerating Activity = "generating"
	ActivityUpscaling  Activity = "upscaling"
)

var (
	ErrBusy             = errors.New("another action is already running")
	ErrNoImage          = errors.New("please upload an image first")
	ErrEmptyInstruction = errors.New("please describe the edit you want to make")
)

// Kinds for failures caught before any request is issued.
const (
	KindInvalidInput mifoto.ErrorKind = "invalid_input"
	KindBusy         mifoto.ErrorKind = "busy"
)

// Editor is the edit capability a session drives. *mifoto.Manager satisfies it.
type Editor interface {
	Edit(ctx context.Context, image mifoto.InputImage, instruction string, cred mifoto.Credential, config *mifoto.EditConfig) (*mifoto.EditResult, error)
	Upscale(ctx context.Context, image mifoto.InputImage, cred mifoto.Credential, config *mifoto.EditConfig) (*mifoto.EditResult, error)
}

// ErrorView is the displayable form of the last failure.
type ErrorView struct {
	Kind       mifoto.ErrorKind `json:"kind"`
	Message    string           `json:"message"`
	RetryDelay string           `json:"retryDelay,omitempty"`
	Links      []mifoto.Link    `json:"links,omitempty"`
}

// Snapshot is everything the view renders.
type Snapshot struct {
	State           State             `json:"state"`
	Activity        Activity          `json:"activity"`
	FileName        string            `json:"fileName,omitempty"`
	OriginalImage   string            `json:"originalImage,omitempty"`
	EditedImage     string            `json:"editedImage,omitempty"`
	LastInstruction string            `json:"lastInstruction,omitempty"`
	Error           *ErrorView        `json:"error,omitempty"`
	Credential      credential.Status `json:"credential"`
	HostSelector    bool              `json:"hostSelector"`
	Usage           quota.Usage       `json:"usage"`
}

// Session is the workflow of a single browser. Only one action runs at a time.
type Session struct {
	editor   Editor
	resolver *credential.Resolver
	tracker  *quota.Tracker
	config   *mifoto.EditConfig
	logger   *slog.Logger

	mu              sync.Mutex
	original        *mifoto.InputImage
	originalURL     string
	fileName        string
	editedURL       string
	lastInstruction string
	lastErr         *ErrorView
	activity        Activity
}

// Option configures a Session.
type Option func(*Session)

// WithEditConfig sets the config passed with every edit.
func WithEditConfig(config *mifoto.EditConfig) Option {
	return func(s *Session) {
		s.config = config
	}
}

// WithLogger sets a structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates a session in StateNoImage.
func New(editor Editor, resolver *credential.Resolver, tracker *quota.Tracker, opts ...Option) *Session {
	s := &Session{
		editor:   editor,
		resolver: resolver,
		tracker:  tracker,
		config:   mifoto.DefaultConfig(),
		logger:   slog.Default(),
		activity: ActivityIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload replaces the photo, clearing any edited result and error.
func (s *Session) Upload(fileName string, image mifoto.InputImage) error {
	if err := mifoto.ValidateInputImage(image); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activity != ActivityIdle {
		return ErrBusy
	}

	img := image
	s.original = &img
	s.originalURL = mifoto.EncodeDataURI(image.MIMEType, image.Data)
	s.fileName = fileName
	s.editedURL = ""
	s.lastErr = nil

	s.logger.Debug("image loaded",
		"file_name", fileName,
		"mime_type", image.MIMEType,
		"image_size", len(image.Data),
	)
	return nil
}

// Generate applies instruction to the loaded photo.
func (s *Session) Generate(ctx context.Context, instruction string) (*mifoto.EditResult, error) {
	instruction = strings.TrimSpace(instruction)
	return s.run(ctx, ActivityGenerating, instruction, func(ctx context.Context, image mifoto.InputImage, cred mifoto.Credential) (*mifoto.EditResult, error) {
		return s.editor.Edit(ctx, image, instruction, cred, s.config)
	})
}

// Upscale improves resolution and detail of the loaded photo.
func (s *Session) Upscale(ctx context.Context) (*mifoto.EditResult, error) {
	return s.run(ctx, ActivityUpscaling, "", func(ctx context.Context, image mifoto.InputImage, cred mifoto.Credential) (*mifoto.EditResult, error) {
		return s.editor.Upscale(ctx, image, cred, s.config)
	})
}

type action func(ctx context.Context, image mifoto.InputImage, cred mifoto.Credential) (*mifoto.EditResult, error)

func (s *Session) run(ctx context.Context, activity Activity, instruction string, call action) (*mifoto.EditResult, error) {
	s.mu.Lock()
	if s.activity != ActivityIdle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.original == nil {
		return nil, s.failLocked(ErrNoImage)
	}
	if activity == ActivityGenerating && instruction == "" {
		return nil, s.failLocked(ErrEmptyInstruction)
	}

	status, err := s.resolver.Resolve(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !status.Usable {
		return nil, s.failLocked(mifoto.NewMissingCredential())
	}

	image := *s.original
	s.activity = activity
	s.lastErr = nil
	s.editedURL = ""
	if instruction != "" {
		s.lastInstruction = instruction
	}
	s.mu.Unlock()

	// The result lands in the session even if the caller goes away.
	callCtx := context.WithoutCancel(ctx)
	result, err := call(callCtx, image, status.Credential)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = ActivityIdle

	if err != nil {
		s.lastErr = ViewOf(err)
		if mifoto.IsInvalidCredential(err) {
			if invErr := s.resolver.Invalidate(callCtx); invErr != nil {
				s.logger.Error("failed to clear rejected credential", "error", invErr.Error())
			}
		}
		return nil, err
	}

	s.editedURL = result.ImageURL
	if _, err := s.tracker.RecordUsage(callCtx, result.TokensUsed); err != nil {
		s.logger.Warn("failed to record token usage",
			"tokens", result.TokensUsed,
			"error", err.Error(),
		)
	}
	return result, nil
}

// failLocked records a guidance error and releases the lock.
func (s *Session) failLocked(err error) error {
	s.lastErr = ViewOf(err)
	s.mu.Unlock()
	return err
}

// Snapshot returns the current view state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	status, err := s.resolver.Resolve(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	usage, err := s.tracker.Load(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:           StateNoImage,
		Activity:        s.activity,
		FileName:        s.fileName,
		OriginalImage:   s.originalURL,
		EditedImage:     s.editedURL,
		LastInstruction: s.lastInstruction,
		Credential:      status,
		HostSelector:    s.resolver.HasHostSelector(),
		Usage:           usage,
	}
	if s.original != nil {
		snap.State = StateImageLoaded
	}
	if s.lastErr != nil {
		errView := *s.lastErr
		snap.Error = &errView
	}
	return snap, nil
}

// Resolver exposes the session's credential resolver.
func (s *Session) Resolver() *credential.Resolver {
	return s.resolver
}

// Tracker exposes the session's quota tracker.
func (s *Session) Tracker() *quota.Tracker {
	return s.tracker
}

// ViewOf converts any failure into its displayable form.
func ViewOf(err error) *ErrorView {
	var editErr *mifoto.EditError
	if errors.As(err, &editErr) {
		return &ErrorView{
			Kind:       editErr.Kind,
			Message:    editErr.Message,
			RetryDelay: editErr.RetryDelay,
			Links:      editErr.Links,
		}
	}
	return &ErrorView{Kind: KindOf(err), Message: err.Error()}
}

// KindOf extends mifoto.KindOf with the session's own failures.
func KindOf(err error) mifoto.ErrorKind {
	switch {
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, ErrNoImage),
		errors.Is(err, ErrEmptyInstruction),
		errors.Is(err, mifoto.ErrEmptyInstruction),
		errors.Is(err, mifoto.ErrEmptyImageData),
		errors.Is(err, mifoto.ErrInvalidMIMEType),
		errors.Is(err, mifoto.ErrImageTooLarge):
		return KindInvalidInput
	}
	return mifoto.KindOf(err)
}
