package hosted

import (
	"math/rand/v2"
	"sync"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) int64N(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Int64N(n)
}

func registerRandom(reg *evaluator.Registry, opts Options) {
	var src rand.Source
	if opts.Seed != 0 {
		src = rand.NewPCG(opts.Seed, opts.Seed)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	rng := &lockedRand{r: rand.New(src)}

	// random.randrange(stop), (start, stop) or (start, stop, step): a value
	// from the half-open range.
	reg.Register("random.randrange", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("random.randrange", args, 1, 3); err != nil {
			return nil, err
		}
		bounds := make([]int64, len(args))
		for i, a := range args {
			n, err := intArg("random.randrange", a)
			if err != nil {
				return nil, err
			}
			bounds[i] = n
		}
		start, stop, step := int64(0), bounds[0], int64(1)
		if len(bounds) > 1 {
			start, stop = bounds[0], bounds[1]
		}
		if len(bounds) > 2 {
			step = bounds[2]
		}
		if step == 0 {
			return nil, rangeError("random.randrange", "a non-zero step")
		}

		var count int64
		if step > 0 {
			count = (stop - start + step - 1) / step
		} else {
			count = (start - stop - step - 1) / -step
		}
		if count <= 0 {
			return nil, rangeError("random.randrange", "a non-empty range")
		}
		return evaluator.NewInteger(start + step*rng.int64N(count)), nil
	})

	// random.randint(a, b): a value between a and b inclusive.
	reg.Register("random.randint", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("random.randint", args, 2, 2); err != nil {
			return nil, err
		}
		a, err := intArg("random.randint", args[0])
		if err != nil {
			return nil, err
		}
		b, err := intArg("random.randint", args[1])
		if err != nil {
			return nil, err
		}
		if b < a {
			return nil, rangeError("random.randint", "a lower bound no greater than the upper bound")
		}
		return evaluator.NewInteger(a + rng.int64N(b-a+1)), nil
	})
}

func rangeError(target, expected string) error {
	return gerrors.New("OP-0006", map[string]any{
		"Function": target,
		"Expected": expected,
		"Got":      "an empty range",
	})
}
