// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger wraps hclog behind a small interface shared by every package of the loader.
// Loggers travel inside the context so the pipeline and the destinations log under the
// level selected on the command line.
package logger
