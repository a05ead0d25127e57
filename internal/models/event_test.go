package models_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/soonerbadges/internal/models"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := models.DecodeEvent([]byte(`{"type":"quiz_finished","user_id":"u1","category":"OU History","correct":18,"total":20,"score":90,"finished_at":"2025-01-01T10:00:00Z"}`))
	require.NoError(t, err)
	q, ok := ev.(models.QuizFinished)
	require.True(t, ok)
	assert.Equal(t, "u1", q.Subject())
	assert.Equal(t, models.KindQuizFinished, q.Kind())
	assert.Equal(t, 90.0, q.Score)
	assert.Equal(t, 18, q.Correct)

	ev, err = models.DecodeEvent([]byte(`{"type":"answer_result","user_id":"u2","is_correct":true,"when":"2025-01-01T10:00:00Z"}`))
	require.NoError(t, err)
	a, ok := ev.(models.AnswerResult)
	require.True(t, ok)
	assert.True(t, a.IsCorrect)
	assert.Empty(t, a.Category)

	ev, err = models.DecodeEvent([]byte(`{"type":"user_login","user_id":"u3","when":"2025-01-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, models.KindUserLogin, ev.Kind())
}

func TestDecodeEvent_Errors(t *testing.T) {
	_, err := models.DecodeEvent([]byte(`{"type":"badge_revoked","user_id":"u1"}`))
	assert.True(t, errors.Is(err, models.ErrUnknownEventType))

	_, err = models.DecodeEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = models.DecodeEvent([]byte(`{"type":"quiz_finished","score":"high"}`))
	assert.Error(t, err)
}

func TestEncodeEvent_CarriesType(t *testing.T) {
	when := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := models.EncodeEvent(models.UserLogin{UserID: "u1", When: when})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "user_login", raw["type"])
	assert.Equal(t, "u1", raw["user_id"])

	back, err := models.DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, models.UserLogin{UserID: "u1", When: when}, back)
}

func TestSet_JSONIsSortedArray(t *testing.T) {
	s := models.NewSet("b", "a")
	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("c"))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b","c"]`, string(data))

	var back models.Set
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Has("c"))
	assert.Equal(t, 3, back.Len())
}
