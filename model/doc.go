// Package model defines the provider-agnostic text-generation abstraction
// used to produce post-session reports.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic, Gemini) implement Model in sub-packages so the
// summary layer stays decoupled from vendor SDKs.
package model
