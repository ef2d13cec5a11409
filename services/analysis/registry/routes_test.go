// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/refscan/services/analysis/extract"
)

const webRoutes = `<?php

use Illuminate\Support\Facades\Route;

Route::get('/', fn () => view('home'))->name('home');
Route::get('/users', 'UserController@index')->name('users.index');
Route::post('/users', 'UserController@store')->middleware('auth')->name('users.store');
Route::match(['put', 'patch'], '/users/{id}', 'UserController@update')->name('users.update');
Route::get('/about', 'PageController@about');
`

func buildRouteRegistry(t *testing.T, src string, opts ...RouteRegistryOption) *RouteRegistry {
	t.Helper()
	file := writeFile(t, t.TempDir(), "web.php", src)
	reg := NewRouteRegistry([]string{file}, opts...)
	require.NoError(t, reg.Build(context.Background()))
	return reg
}

func TestRouteRegistryVerbChains(t *testing.T) {
	reg := buildRouteRegistry(t, webRoutes)

	for _, name := range []string{"home", "users.index", "users.store", "users.update"} {
		assert.True(t, reg.Has(name), "expected route %q", name)
	}
	assert.False(t, reg.Has("users.destroy"))
	assert.Equal(t, 4, reg.Size(), "the unnamed /about route registers nothing")
}

func TestRouteRegistryGroupArrayPrefix(t *testing.T) {
	reg := buildRouteRegistry(t, `<?php
Route::group(['as' => 'admin.', 'prefix' => 'admin'], function () {
    Route::get('/dashboard', 'DashboardController@show')->name('dashboard');
    Route::group(['as' => 'users.'], function () {
        Route::get('/users', 'UserController@index')->name('index');
    });
});
`)

	assert.True(t, reg.Has("admin.dashboard"))
	assert.True(t, reg.Has("admin.users.index"), "nested group prefixes concatenate in declaration order")
	assert.False(t, reg.Has("dashboard"), "grouped names do not register unprefixed")
}

func TestRouteRegistryFluentGroupPrefix(t *testing.T) {
	reg := buildRouteRegistry(t, `<?php
Route::name('api.')->prefix('api')->group(function () {
    Route::get('/ping', fn () => 'pong')->name('ping');
    Route::name('v2.')->group(function () {
        Route::get('/status', fn () => 'ok')->name('status');
    });
});
`)

	assert.True(t, reg.Has("api.ping"))
	assert.True(t, reg.Has("api.v2.status"))
	assert.False(t, reg.Has("ping"))
}

func TestRouteRegistryIgnoresDynamicNames(t *testing.T) {
	reg := buildRouteRegistry(t, `<?php
Route::get('/x', 'XController@show')->name('x.' . $suffix);
Route::get('/y', 'YController@show')->name('y.show');
`)

	assert.Equal(t, 1, reg.Size())
	assert.True(t, reg.Has("y.show"))
}

func TestRouteRegistryDirectoryOfFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "routes/web.php", `<?php
Route::get('/', fn () => '')->name('home');
`)
	writeFile(t, root, "routes/api.php", `<?php
Route::get('/ping', fn () => '')->name('api.ping');
`)

	reg := NewRouteRegistry([]string{root})
	require.NoError(t, reg.Build(context.Background()))
	assert.True(t, reg.Has("home"))
	assert.True(t, reg.Has("api.ping"))
}

func TestRouteRegistryTTLCache(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, root, "web.php", `<?php
Route::get('/', fn () => '')->name('home');
`)

	clock := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	reg := NewRouteRegistry([]string{file},
		WithRouteTTL(time.Minute),
		WithClock(func() time.Time { return clock }))
	require.NoError(t, reg.Build(context.Background()))
	require.True(t, reg.Has("home"))

	// A new route appears on disk, but the cached build is still fresh.
	writeFile(t, root, "web.php", `<?php
Route::get('/', fn () => '')->name('home');
Route::get('/late', fn () => '')->name('late');
`)
	require.NoError(t, reg.Build(context.Background()))
	assert.False(t, reg.Has("late"), "within TTL the cached names are reused")

	// Past the TTL the registry rebuilds and picks up the change.
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, reg.Build(context.Background()))
	assert.True(t, reg.Has("late"))
}

func TestRouteRegistryInvalidate(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, root, "web.php", `<?php
Route::get('/', fn () => '')->name('home');
`)
	reg := NewRouteRegistry([]string{file}, WithRouteTTL(time.Hour))
	require.NoError(t, reg.Build(context.Background()))

	writeFile(t, root, "web.php", `<?php
Route::get('/', fn () => '')->name('renamed');
`)
	reg.Invalidate()
	require.NoError(t, reg.Build(context.Background()))
	assert.True(t, reg.Has("renamed"))
	assert.False(t, reg.Has("home"))
}

func TestRouteRegistryMissingFileDegrades(t *testing.T) {
	reg := NewRouteRegistry([]string{"/nonexistent/routes/web.php"})
	require.NoError(t, reg.Build(context.Background()))
	assert.Equal(t, 0, reg.Size())
}

// End-to-end: a missing route name is flagged with its source line.
func TestRouteValidatorEndToEnd(t *testing.T) {
	file := writeFile(t, t.TempDir(), "web.php", `<?php
Route::get('/users', 'UserController@index')->name('users.index');
`)
	v := NewValidator(extract.NewRouteExtractor(), NewRouteRegistry([]string{file}))

	result := analyzeSource(t, v, "nav.blade.php", `<ul>
<li><a href="{{ route('users.index') }}">Users</a></li>
<li><a href="{{ route('users.archive') }}">Archive</a></li>
</ul>
`)

	require.Len(t, result.Missing, 1)
	assert.Equal(t, "users.archive", result.Missing[0].Value)
	assert.Equal(t, 3, result.Missing[0].Line)
}
