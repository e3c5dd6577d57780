// Package quiz implements the headless quiz engine: question definitions,
// per-question scoring with partial credit for free-text answers, attempt
// navigation and final percentage computation.
package quiz
