package stagex

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ooni/connectx/internal/model/mocks"
	"github.com/ooni/connectx/internal/netxlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResultLabel(t *testing.T) {
	type testcase struct {
		err    error
		expect string
	}
	testcases := []testcase{{
		err:    nil,
		expect: "ok",
	}, {
		err:    io.EOF,
		expect: "error",
	}, {
		err:    netxlite.NewTopLevelGenericErrWrapper(io.EOF),
		expect: netxlite.FailureEOFError,
	}, {
		err:    netxlite.NewTopLevelGenericErrWrapper(errors.New("antani")),
		expect: "error",
	}}
	for _, tc := range testcases {
		if got := ResultLabel(tc.err); got != tc.expect {
			t.Fatal("expected", tc.expect, "got", got)
		}
	}
}

func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}

	var fail bool
	inner := &mocks.Stage[int, int]{
		MockReady: func(ctx context.Context) error {
			return nil
		},
		MockCall: func(ctx context.Context, input int) (int, error) {
			if fail {
				return 0, netxlite.NewTopLevelGenericErrWrapper(io.EOF)
			}
			return input, nil
		},
	}
	stage := WithMetrics[int, int](inner, m, "tls")
	if err := stage.Ready(context.Background()); err != nil {
		t.Fatal(err)
	}
	for idx := 0; idx < 3; idx++ {
		if _, err := stage.Call(context.Background(), idx); err != nil {
			t.Fatal(err)
		}
	}
	fail = true
	if _, err := stage.Call(context.Background(), 0); err == nil {
		t.Fatal("expected an error")
	}

	if v := testutil.ToFloat64(m.calls.WithLabelValues("tls", "ok")); v != 3 {
		t.Fatal("unexpected ok count", v)
	}
	if v := testutil.ToFloat64(m.calls.WithLabelValues("tls", netxlite.FailureEOFError)); v != 1 {
		t.Fatal("unexpected eof count", v)
	}
	if count := testutil.CollectAndCount(m.duration); count != 1 {
		t.Fatal("unexpected number of histograms", count)
	}

	t.Run("registering twice fails", func(t *testing.T) {
		if _, err := NewMetrics(reg); err == nil {
			t.Fatal("expected an error")
		}
	})
}
