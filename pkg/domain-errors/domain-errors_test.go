package domainerrors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives shared by every service layer.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "profile not found"}
		s.Equal("profile not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeIncompleteEnrollment}
		s.Equal("incomplete_enrollment", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeInvalidInput, Message: "embedding is empty"}
		err2 := &Error{Code: CodeInvalidInput, Message: "dimension mismatch"}
		s.True(errors.Is(err1, err2))
	})

	s.Run("different codes do not match", func() {
		err1 := &Error{Code: CodeProfileLocked}
		err2 := &Error{Code: CodeProfileNotActive}
		s.False(errors.Is(err1, err2))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves original domain code", func() {
		inner := New(CodeIncompleteEnrollment, "no voice samples")
		wrapped := Wrap(inner, CodeInternal, "finalize failed")
		s.True(HasCode(wrapped, CodeIncompleteEnrollment))
		s.Equal("finalize failed", wrapped.Error())
	})

	s.Run("applies code to plain errors", func() {
		wrapped := Wrap(errors.New("connection reset"), CodeInternal, "store failure")
		s.True(HasCode(wrapped, CodeInternal))
	})

	s.Run("HasCode sees through fmt wrapping", func() {
		err := fmt.Errorf("evaluate: %w", New(CodeTimeout, "session expired"))
		s.True(HasCode(err, CodeTimeout))
		s.False(HasCode(err, CodeInternal))
	})
}

func (s *DomainErrorsSuite) TestLocked() {
	until := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := Locked(until)

	s.True(HasCode(err, CodeProfileLocked))
	got, ok := LockedUntil(fmt.Errorf("begin: %w", err))
	s.True(ok)
	s.Equal(until, got)

	_, ok = LockedUntil(New(CodeProfileNotActive, "pending"))
	s.False(ok)
}
