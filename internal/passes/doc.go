// Package passes implements the compilation passes that consume lowering
// metadata on a dispatch.
//
// Pass order for a dispatch:
//
//  1. MaterializeCompilationInfo replaces every compilation_info override
//     with the records it bundles
//  2. VerifyDispatch checks every attached record and the cross-op
//     distribution agreement
//  3. PlanDistribution derives workgroup-level tiling and the per-op
//     thread, warp and reduction tile sizes
//
// Passes never reorder ops. Failures are returned as *PassError so
// callers can branch on the error code.
package passes
