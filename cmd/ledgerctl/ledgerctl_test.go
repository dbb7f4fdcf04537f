package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"
	"pocket-ledger-go/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditor map[string][]ledgerdomain.BalanceDrift

func (f fakeAuditor) AuditBalances(_ context.Context, userID string) ([]ledgerdomain.BalanceDrift, error) {
	if userID == "broken" {
		return nil, errors.New("connection refused")
	}
	return f[userID], nil
}

type fakeProvisioner struct {
	calls []string
}

func (f *fakeProvisioner) ProvisionSystemCategories(_ context.Context, userID string) ([]ledgerdomain.Category, error) {
	f.calls = append(f.calls, userID)
	if userID == "broken" {
		return nil, errors.New("deadlock")
	}
	return nil, nil
}

func quietLogger() logger.Logger {
	return logger.New(io.Discard, 0, "text")
}

func TestRunAuditReportsDrift(t *testing.T) {
	auditor := fakeAuditor{
		"u2": {{AccountID: "a1", Name: "Main", Stored: decimal.RequireFromString("889"), Expected: decimal.RequireFromString("888")}},
	}
	var out bytes.Buffer

	err := runAudit(context.Background(), auditor, []string{"u1", "u2"}, quietLogger(), &out, io.Discard)
	require.ErrorIs(t, err, errDriftFound)
	assert.Contains(t, out.String(), "STORED")
	assert.Contains(t, out.String(), "Main")
	assert.Contains(t, out.String(), "889")
}

func TestRunAuditCleanAndFailing(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAudit(context.Background(), fakeAuditor{}, []string{"u1"}, quietLogger(), &out, io.Discard))
	assert.Contains(t, out.String(), "no drift")

	err := runAudit(context.Background(), fakeAuditor{}, []string{"u1", "broken"}, quietLogger(), &out, io.Discard)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errDriftFound)
}

func TestBackfillCategoriesContinuesAfterFailure(t *testing.T) {
	provisioner := &fakeProvisioner{}
	failed := backfillCategories(context.Background(), provisioner, []string{"u1", "broken", "u3"}, quietLogger(), io.Discard)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"u1", "broken", "u3"}, provisioner.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provisioner = &fakeProvisioner{}
	failed = backfillCategories(ctx, provisioner, []string{"u1", "u2"}, quietLogger(), io.Discard)
	assert.Equal(t, 2, failed)
	assert.Empty(t, provisioner.calls)
}

func TestValidateUserIDs(t *testing.T) {
	require.NoError(t, validateUserIDs([]string{"0b6f3c1e-8a44-4f0e-9d1c-2a7b5e9c3f10"}))
	require.Error(t, validateUserIDs([]string{"0b6f3c1e-8a44-4f0e-9d1c-2a7b5e9c3f10", "u1"}))
}
