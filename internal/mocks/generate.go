// Package mocks provides mock implementations for testing the auth ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the directory interface. The generated file is committed so tests build
// without a codegen step; regenerate after interface changes with:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for UserDirectory interface from internal/ports.
// This creates MockUserDirectory with methods for all UserDirectory interface
// methods: FindAdminCredentialByEmail, FindByEmail, FindByID, UpsertByEmail
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_directory_mock.go github.com/macrowatch/indicator-api/internal/ports UserDirectory
