// Package agent implements the ReAct-style retrieval loop: it renders a
// prompt listing the available tools, repeatedly asks a language model which
// tool to invoke, feeds each observation back and terminates on a final
// answer or an iteration budget. Model output is parsed defensively, with
// recovery for fenced code blocks and the invalid escape sequences models
// commonly emit.
package agent
