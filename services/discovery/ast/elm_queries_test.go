// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

// childKinds returns the kinds of node's direct children, anonymous ones
// included.
func childKinds(node *sitter.Node) []string {
	kinds := make([]string, 0, int(node.ChildCount()))
	for i := 0; i < int(node.ChildCount()); i++ {
		kinds = append(kinds, node.Child(i).Type())
	}
	return kinds
}

// exposingListOf returns the exposing_list of the file's module header.
func exposingListOf(t *testing.T, doc *Document) *sitter.Node {
	t.Helper()
	header := doc.Root().Child(0)
	if header == nil || header.Type() != KindModuleDeclaration {
		t.Fatalf("expected %s as first child, got %v", KindModuleDeclaration, header)
	}
	list := header.ChildByFieldName("exposing")
	if list == nil || list.Type() != KindExposingList {
		t.Fatalf("expected %s under the exposing field, got %v", KindExposingList, list)
	}
	return list
}

func assertKinds(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected kinds %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("child %d: expected kind %q, got %q (all: %q)", i, want[i], got[i], got)
		}
	}
}

func TestGrammarShape_ExplicitExposingList(t *testing.T) {
	doc := parseForTest(t, "module M exposing (a, B)\na = 1\n")

	assertKinds(t, childKinds(exposingListOf(t, doc)), []string{
		KindExposing,
		KindLeftParenthesis,
		KindExposedValue,
		KindComma,
		KindExposedType,
		KindRightParenthesis,
	})
}

func TestGrammarShape_WildcardExposingList(t *testing.T) {
	doc := parseForTest(t, "module M exposing (..)\na = 1\n")

	assertKinds(t, childKinds(exposingListOf(t, doc)), []string{
		KindExposing,
		KindLeftParenthesis,
		KindDoubleDot,
		KindRightParenthesis,
	})
}

func TestGrammarShape_ExposedValueHead(t *testing.T) {
	doc := parseForTest(t, "module M exposing (suite)\nsuite = 1\n")

	item := exposingListOf(t, doc).Child(2)
	if item.Type() != KindExposedValue {
		t.Fatalf("expected %s, got %s", KindExposedValue, item.Type())
	}
	if got := item.Child(0).Type(); got != KindLowerCaseIdentifier {
		t.Errorf("expected %s as first child of %s, got %s", KindLowerCaseIdentifier, KindExposedValue, got)
	}
}

func TestGrammarShape_ValueDeclarationHead(t *testing.T) {
	doc := parseForTest(t, "suite arg = arg\n")

	decl := doc.Root().Child(0)
	if decl.Type() != KindValueDeclaration {
		t.Fatalf("expected %s, got %s", KindValueDeclaration, decl.Type())
	}
	lhs := decl.Child(0)
	if lhs.Type() != KindFunctionDeclarationLeft {
		t.Fatalf("expected %s, got %s", KindFunctionDeclarationLeft, lhs.Type())
	}
	head := lhs.Child(0)
	if head.Type() != KindLowerCaseIdentifier {
		t.Fatalf("expected %s, got %s", KindLowerCaseIdentifier, head.Type())
	}
	if got := head.Content(doc.Source); got != "suite" {
		t.Errorf("expected head %q, got %q", "suite", got)
	}
}
