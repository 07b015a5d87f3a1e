// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms over parameter trees.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/lazy/array"
//	    "github.com/born-ml/lazy/optim"
//	    "github.com/born-ml/lazy/tree"
//	)
//
//	func main() {
//	    params := tree.Tree{"w": tree.Leaf(w), "b": tree.Leaf(b)}
//	    optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//
//	    for step := range 100 {
//	        grads := ... // tree of gradients shaped like params
//	        next, err := optimizer.Step(grads, params)
//	        if err != nil {
//	            log.Fatal(err)
//	        }
//	        params = next
//	        if err := array.Materialize(ctx, append(tree.Leaves(params), optimizer.State().Arrays()...)...); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// Updates are lazy like every other array operation. Step detaches the new
// parameters and optimizer state, so once they are materialized they become
// leaves and the next step's graph does not reach back into earlier steps.
package optim
