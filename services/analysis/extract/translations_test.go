// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import "testing"

func TestTranslationExtractorCallShapes(t *testing.T) {
	src := `<?php
$a = __('auth.failed');
$b = trans('validation.required');
$c = trans_choice('messages.apples', $count);
$d = Lang::get('passwords.reset');
$e = Lang::has('mail.subject');
$f = Lang::choice('messages.minutes', 5);
`
	refs := extractFrom(t, NewTranslationExtractor(), "messages.php", src)

	want := []string{
		"auth.failed", "validation.required", "messages.apples",
		"passwords.reset", "mail.subject", "messages.minutes",
	}
	if len(refs) != len(want) {
		t.Fatalf("got %v, want %d refs", refValues(refs), len(want))
	}
	for i, w := range want {
		if refs[i].Value != w || refs[i].Dynamic {
			t.Errorf("ref %d = %+v, want static %q", i, refs[i], w)
		}
	}
}

func TestTranslationExtractorBareUnderscoreCall(t *testing.T) {
	// __() with no arguments returns the translator and is not a lookup.
	refs := extractFrom(t, NewTranslationExtractor(), "bare.php", "<?php $t = __();")
	if len(refs) != 0 {
		t.Errorf("bare __() extracted: %v", refValues(refs))
	}
}

func TestTranslationExtractorJSONStyleKeys(t *testing.T) {
	refs := extractFrom(t, NewTranslationExtractor(), "welcome.php",
		`<?php echo __('Welcome to our application!');`)
	if len(refs) != 1 || refs[0].Value != "Welcome to our application!" {
		t.Errorf("JSON-style key not extracted: %v", refValues(refs))
	}
}

func TestTranslationExtractorDynamicKey(t *testing.T) {
	src := `<?php
$a = __('emails.' . $template);
$b = trans($key);
`
	refs := extractFrom(t, NewTranslationExtractor(), "dynamic.php", src)
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	for _, r := range refs {
		if !r.Dynamic {
			t.Errorf("computed key %q must be dynamic", r.Value)
		}
	}
}

func TestTranslationExtractorIgnoresOtherScopes(t *testing.T) {
	refs := extractFrom(t, NewTranslationExtractor(), "other.php",
		`<?php Cache::get('auth.failed'); $x->get('auth.failed');`)
	if len(refs) != 0 {
		t.Errorf("non-Lang get() calls extracted: %v", refValues(refs))
	}
}

func TestTranslationExtractorBladeDirectives(t *testing.T) {
	src := `<h1>{{ __('dashboard.title') }}</h1>
<p>@lang('dashboard.intro')</p>
<span>{{ trans_choice('dashboard.items', $n) }}</span>
<em>{{ __($dynamicKey) }}</em>
`
	refs := extractFrom(t, NewTranslationExtractor(), "dashboard.blade.php", src)

	want := []string{"dashboard.title", "dashboard.intro", "dashboard.items"}
	if len(refs) != 4 {
		t.Fatalf("got %v, want 4 refs", refValues(refs))
	}
	for i, w := range want {
		if refs[i].Value != w || refs[i].Dynamic {
			t.Errorf("ref %d = %+v, want static %q", i, refs[i], w)
		}
		if refs[i].Line != i+1 {
			t.Errorf("ref %d line = %d, want %d", i, refs[i].Line, i+1)
		}
	}
	if !refs[3].Dynamic || refs[3].Value != "$dynamicKey" {
		t.Errorf("dynamic blade key = %+v", refs[3])
	}
}
