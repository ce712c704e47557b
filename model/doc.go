// Package model defines the minimal completion interface the agent loop
// drives, together with the shared message types and a mock implementation
// for tests. Provider adapters live in the subpackages (openai, anthropic).
package model
