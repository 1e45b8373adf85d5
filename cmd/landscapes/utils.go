// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/gardener/sdaf-landscapes/pkg/clients/azure"
	"github.com/gardener/sdaf-landscapes/pkg/core/config"
	"github.com/gardener/sdaf-landscapes/pkg/landscape/models"
	"github.com/gardener/sdaf-landscapes/pkg/landscape/store"
	slogutils "github.com/gardener/sdaf-landscapes/pkg/utils/slog"
)

// na is the value printed for missing values.
const na = "N/A"

// errNoLandscapeFile is returned when a command expects a landscape file, but
// none was specified.
var errNoLandscapeFile = errors.New("no landscape file specified")

// configKey is the key used to store the parsed config in the context.
type configKey struct{}

// loadConfig parses the config from the given path. Without a path the
// defaults are used.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Parse(path)
	}

	conf := &config.Config{Version: config.ConfigFormatVersion}
	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// lookupConfig returns the config stored in the context, if any.
func lookupConfig(ctx *cli.Context) (*config.Config, bool) {
	conf, ok := ctx.Context.Value(configKey{}).(*config.Config)
	return conf, ok
}

// getConfig returns the config stored in the context.
func getConfig(ctx *cli.Context) *config.Config {
	conf, ok := lookupConfig(ctx)
	if !ok {
		panic("config not found in context")
	}

	return conf
}

// newLogger creates a new [slog.Logger] from the given config. Debug mode
// enables the debug log level.
func newLogger(w io.Writer, conf *config.Config) (*slog.Logger, error) {
	loggingConf := conf.Logging
	if conf.Debug {
		loggingConf.Level = "debug"
	}

	return slogutils.NewFromConfig(w, loggingConf)
}

// newAccessor creates a new [azure.Accessor] from the given config.
func newAccessor(conf *config.Config) *azure.Accessor {
	opts := []azure.Option{
		azure.WithLogger(slog.Default()),
	}

	if conf.Storage.CacheClients {
		opts = append(opts, azure.WithClientCache())
	}

	return azure.NewAccessor(conf.Storage, conf.Storage.ConnectionStringKey, opts...)
}

// serializerOptions returns the serializer options from the given config.
func serializerOptions(conf *config.Config) models.SerializerOptions {
	return models.SerializerOptions{
		Naming:   conf.Serialization.Naming,
		OmitNull: conf.Serialization.OmitNull,
		Indent:   conf.Serialization.Indent,
	}
}

// newStore creates a new [store.Store] from the given config.
func newStore(conf *config.Config) *store.Store {
	storeConf := store.Config{
		Table:      conf.Storage.LandscapesTable,
		Container:  conf.Storage.ExportsContainer,
		Serializer: serializerOptions(conf),
	}

	return store.New(newAccessor(conf), storeConf, store.WithLogger(slog.Default()))
}

// readLandscapeFile reads a landscape from the given YAML file.
func readLandscapeFile(path string) (*models.Landscape, error) {
	if path == "" {
		return nil, errNoLandscapeFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var l models.Landscape
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, err
	}

	return &l, nil
}

// newTableWriter creates a new [tablewriter.Table] with the given headers.
func newTableWriter(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	header := make([]any, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}
	table.Header(header...)

	return table
}
