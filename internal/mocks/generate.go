// Package mocks provides mock implementations for testing the prestataires services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	repo := mocks.NewMockPrestataireRepository(ctrl)
//	repo.EXPECT().List(gomock.Any()).Return(records, nil)
package mocks

// Generate mock for IdentityProvider interface from internal/ports package.
// This creates MockIdentityProvider with methods for all IdentityProvider interface methods:
// GetCurrentSession, OnSessionChange, SignUp, SignInWithPassword, SignOut
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_provider_mock.go github.com/target/prestataires-ui/internal/ports IdentityProvider

// Generate mock for ProfileStore interface from internal/ports package.
// This creates MockProfileStore with methods for all ProfileStore interface methods:
// InsertUserRow
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_store_mock.go github.com/target/prestataires-ui/internal/ports ProfileStore

// Generate mock for TokenStore interface from internal/ports package.
// This creates MockTokenStore with methods for all TokenStore interface methods:
// Save, Load, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go github.com/target/prestataires-ui/internal/ports TokenStore

// Generate mock for PrestataireRepository interface from internal/ports package.
// This creates MockPrestataireRepository with methods for all PrestataireRepository interface methods:
// List, GetByID
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=prestataire_repository_mock.go github.com/target/prestataires-ui/internal/ports PrestataireRepository

// Generate mock for CacheRepository interface from internal/ports package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/prestataires-ui/internal/ports CacheRepository

// Generate mock for DocumentLinker interface from internal/ports package.
// This creates MockDocumentLinker with methods for all DocumentLinker interface methods:
// Link
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=document_linker_mock.go github.com/target/prestataires-ui/internal/ports DocumentLinker
