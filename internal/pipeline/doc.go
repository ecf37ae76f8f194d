// Package pipeline provides a framework for processing books in sequence.
//
// The pipeline pattern is used to take a book through multiple stages:
// PDF conversion, text extraction, index building, highlight matching,
// geometry resolution, annotation writing, and citation verification.
// Each stage is implemented as a Step that receives the current report
// and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running conversions
//
// The pipeline supports both individual books and batch processing with
// concurrency control using errgroup.
package pipeline
