//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package jsonrepair

// isDigit reports whether the rune is an ASCII digit.
func isDigit(char rune) bool {
	return '0' <= char && char <= '9'
}

// isWhitespace reports whether the rune is treated as whitespace.
func isWhitespace(char rune) bool {
	switch char {
	case ' ', '\n', '\t', '\r':
		return true
	default:
		return false
	}
}
