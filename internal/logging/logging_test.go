package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(&buf, "debug", "json")
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("run_id", "abc").Debug("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "abc", entry["run_id"])
}

func TestNewWithOutput_Defaults(t *testing.T) {
	log, err := NewWithOutput(&bytes.Buffer{}, "", "")
	require.NoError(t, err)
	require.Equal(t, logrus.InfoLevel, log.GetLevel())
	require.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNewWithOutput_Invalid(t *testing.T) {
	_, err := NewWithOutput(&bytes.Buffer{}, "loud", "text")
	require.Error(t, err)

	_, err = NewWithOutput(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}

func TestTehranStamp(t *testing.T) {
	// 12:00 UTC is 15:30 in Tehran; 2024-03-25 is 6 Farvardin 1403.
	got := TehranStamp(time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC))
	require.Equal(t, "1403/01/06 - 15:30", got)
}
