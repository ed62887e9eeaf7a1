package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/glove_controller/internal/force"
)

type fakeForce struct {
	values []int
	err    error
}

func (f *fakeForce) Next() (int, error) {
	if len(f.values) == 0 {
		if f.err != nil {
			return 0, f.err
		}
		return 0, io.EOF
	}
	v := f.values[0]
	f.values = f.values[1:]
	return v, nil
}

func TestRunForceLoop(t *testing.T) {
	r := &fakeForce{values: []int{100, 25000, 30000, 20000, 5}}

	var published, edges []force.Click
	err := runForceLoop(context.Background(), r, force.NewDetector(20000),
		func(c force.Click) error {
			published = append(published, c)
			return nil
		},
		func(c force.Click) { edges = append(edges, c) },
	)
	require.NoError(t, err)

	assert.Equal(t, []force.Click{force.Released, force.Pressed, force.Pressed, force.Released, force.Released}, published)
	assert.Equal(t, []force.Click{force.Pressed, force.Released}, edges)
}

func TestRunForceLoopReadError(t *testing.T) {
	boom := errors.New("port gone")
	r := &fakeForce{values: []int{1}, err: boom}

	err := runForceLoop(context.Background(), r, force.NewDetector(20000),
		func(force.Click) error { return errors.New("publish failed") }, nil)
	assert.ErrorIs(t, err, boom)
}

func TestRunForceLoopCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeForce{values: []int{1, 2, 3}}
	require.NoError(t, runForceLoop(ctx, r, force.NewDetector(20000), func(force.Click) error { return nil }, nil))
	assert.Len(t, r.values, 3, "no reads after cancellation")
}
