//go:build windows

package webgpu

import (
	"fmt"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
)

// workgroupSize is the number of threads per workgroup for 1-D kernels.
const workgroupSize = 256

// binaryExprs maps binary kinds to the WGSL expression over a and b.
var binaryExprs = map[graph.Kind]string{
	ops.KindAdd:     "a[idx] + b[idx]",
	ops.KindSub:     "a[idx] - b[idx]",
	ops.KindMul:     "a[idx] * b[idx]",
	ops.KindDiv:     "a[idx] / b[idx]",
	// WGSL max leaves NaN handling to the implementation; a + b carries it.
	ops.KindMaximum: "select(max(a[idx], b[idx]), a[idx] + b[idx], a[idx] != a[idx] || b[idx] != b[idx])",
}

// unaryExprs maps unary kinds to the WGSL expression over x. Scale and
// AddScalar read their constant from params.scalar.
var unaryExprs = map[graph.Kind]string{
	ops.KindNeg:       "-x[idx]",
	ops.KindExp:       "exp(x[idx])",
	ops.KindLog:       "log(x[idx])",
	ops.KindSin:       "sin(x[idx])",
	ops.KindCos:       "cos(x[idx])",
	ops.KindTanh:      "tanh(x[idx])",
	ops.KindSigmoid:   "1.0 / (1.0 + exp(-x[idx]))",
	ops.KindReLU:      "max(0.0, x[idx])",
	ops.KindSqrt:      "sqrt(x[idx])",
	ops.KindAbs:       "abs(x[idx])",
	ops.KindScale:     "x[idx] * params.scalar",
	ops.KindAddScalar: "x[idx] + params.scalar",
}

// binaryShader returns an element-wise kernel: result = expr(a, b).
func binaryShader(expr string) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = %s;
    }
}
`, workgroupSize, expr)
}

// unaryShader returns an element-wise kernel: result = expr(x).
func unaryShader(expr string) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = %s;
    }
}
`, workgroupSize, expr)
}

// matmulShader performs matrix multiplication: C = A @ B.
// A is [M, K], B is [K, N], C is [M, N].
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,
    K: u32,
    N: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        sum = sum + a[row * params.K + k] * b[k * params.N + col];
    }
    result[row * params.N + col] = sum;
}
`
