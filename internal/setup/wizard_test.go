package setup

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	credsErr error
	setupErr error
	request  *model.SetupRequest
}

func (f *fakeBackend) TestCreditCardCredentials(_ context.Context, _ model.Credentials) error {
	return f.credsErr
}

func (f *fakeBackend) SetupUser(_ context.Context, req model.SetupRequest) (*model.User, error) {
	if f.setupErr != nil {
		return nil, f.setupErr
	}
	f.request = &req
	return &model.User{FullName: req.FullName, InitialSetupDone: true}, nil
}

func defaultCategories() []model.Category {
	return []model.Category{{CategoryName: "Food"}, {CategoryName: "Rent"}, {CategoryName: "Fun"}, {CategoryName: "Car"}}
}

func TestWizardSteps(t *testing.T) {
	w := New(model.InitialSetupData())
	assert.Equal(t, StepBudget, w.Step())

	w.Previous()
	assert.Equal(t, StepBudget, w.Step())

	done, err := w.Next()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, StepCategories, w.Step())

	w.SetCategories(SpreadEvenly(defaultCategories()))
	assert.InDelta(t, 100, w.AllocatedPercent(), 0.0001)

	require.NoError(t, w.SetCategoryBudget(0, 30))
	_, err = w.Next()
	require.ErrorIs(t, err, ErrOverBudget)
	assert.Equal(t, StepCategories, w.Step())
	require.NotNil(t, w.Data().ErrorMessage)
	assert.Equal(t, OverBudgetMessage, *w.Data().ErrorMessage)

	require.NoError(t, w.SetCategoryBudget(0, 25))
	_, err = w.Next()
	require.NoError(t, err)
	assert.Equal(t, StepProfile, w.Step())
	assert.Nil(t, w.Data().ErrorMessage)

	done, err = w.Next()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, StepProfile, w.Step())

	w.Previous()
	assert.Equal(t, StepCategories, w.Step())
}

func TestNextAllowsRoundingSlack(t *testing.T) {
	w := New(model.SetupData{StepIndex: StepCategories})
	w.SetCategories([]model.SetupCategory{{Budget: 60.4}, {Budget: 40.3}})
	_, err := w.Next()
	assert.NoError(t, err, "100.7 floors to 100")
}

func TestNewClampsStep(t *testing.T) {
	assert.Equal(t, StepBudget, New(model.SetupData{StepIndex: 9}).Step())
	assert.Equal(t, StepBudget, New(model.SetupData{}).Step())
}

func TestSetCategoryBudgetOutOfRange(t *testing.T) {
	w := New(model.InitialSetupData())
	assert.Error(t, w.SetCategoryBudget(0, 10))
}

func TestBuildRequest(t *testing.T) {
	creds := model.Credentials{Username: "me", Password: "pw", ID: "1"}
	data := model.SetupData{
		FullName:              "jane  van der berg",
		Currency:              "$",
		MonthlyBudget:         4000,
		CreditCardCredentials: &creds,
		Categories: []model.SetupCategory{
			{Category: model.Category{CategoryName: "Food"}, Budget: 50},
			{Category: model.Category{CategoryName: "Rent"}, Budget: 0},
			{Category: model.Category{CategoryName: "Fun"}, Budget: 12.5},
		},
	}

	req, err := BuildRequest(data)
	require.NoError(t, err)

	assert.Equal(t, "Jane  Van Der Berg", req.FullName)
	assert.Equal(t, 4000, req.Budget)
	require.Len(t, req.Categories, 2)
	assert.Equal(t, "Food", req.Categories[0].CategoryName)
	assert.InDelta(t, 2000, req.Categories[0].Budget, 0.001)
	assert.InDelta(t, 500, req.Categories[1].Budget, 0.001)

	// The wizard keeps percentages.
	assert.InDelta(t, 50, data.Categories[0].Budget, 0.001)
}

func TestBuildRequestNeedsCredentials(t *testing.T) {
	_, err := BuildRequest(model.InitialSetupData())
	assert.ErrorIs(t, err, ErrCredentialsNotTested)
}

func TestCapitalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane doe", "Jane Doe"},
		{"JANE doe", "JANE Doe"},
		{"élodie", "Élodie"},
		{"", ""},
		{" leading", " Leading"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CapitalizeName(tt.in))
		})
	}
}

func TestTestCredentialsAndSubmit(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{credsErr: errors.New("Incorrect credentials")}
	w := New(model.SetupData{StepIndex: StepProfile, MonthlyBudget: 1000, FullName: "sam lee"})
	w.SetCategories([]model.SetupCategory{{Category: model.Category{CategoryName: "Food"}, Budget: 100}})

	creds := model.Credentials{Username: "sam", Password: "pw", ID: "7"}
	require.Error(t, w.TestCredentials(ctx, backend, creds))
	assert.Nil(t, w.Data().CreditCardCredentials)

	_, err := w.Submit(ctx, backend, nil)
	require.ErrorIs(t, err, ErrCredentialsNotTested)
	require.NotNil(t, w.Data().ErrorMessage)

	backend.credsErr = nil
	require.NoError(t, w.TestCredentials(ctx, backend, creds))
	assert.Equal(t, &creds, w.Data().CreditCardCredentials)

	backend.setupErr = errors.New("boom")
	_, err = w.Submit(ctx, backend, func(error) string { return "Network error" })
	require.Error(t, err)
	assert.Equal(t, "Network error", *w.Data().ErrorMessage)

	backend.setupErr = nil
	user, err := w.Submit(ctx, backend, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sam Lee", user.FullName)
	assert.Nil(t, w.Data().ErrorMessage)
	require.NotNil(t, backend.request)
	assert.InDelta(t, 1000, backend.request.Categories[0].Budget, 0.001)
}
