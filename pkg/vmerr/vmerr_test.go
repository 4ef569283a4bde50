package vmerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/vmerr"
)

func TestNewAndPush(t *testing.T) {
	err := vmerr.New(vmerr.KindDivideByZero, "division by zero in %s", "div")
	err.Push(vmerr.Frame{Unit: "main", Function: "f", IP: 3})
	err.Push(vmerr.Frame{Unit: "main", Function: "g", IP: 9})

	msg := err.Error()
	assert.Contains(t, msg, "divide_by_zero")
	assert.Contains(t, msg, "main::g@9")
	assert.Contains(t, msg, "main::f@3")
}

func TestIsMatchesKind(t *testing.T) {
	err := vmerr.New(vmerr.KindOverflow, "overflow")
	assert.True(t, vmerr.Is(err, vmerr.KindOverflow))
	assert.False(t, vmerr.Is(err, vmerr.KindUnderflow))
	assert.False(t, vmerr.Is(errors.New("plain"), vmerr.KindOverflow))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := vmerr.Wrap(vmerr.KindHostError, cause, "host function failed")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestPushFreeFunctionPassesThroughNonVMErr(t *testing.T) {
	plain := errors.New("not a vm error")
	got := vmerr.Push(plain, vmerr.Frame{Unit: "x", IP: 1})
	assert.Equal(t, plain, got)
}
