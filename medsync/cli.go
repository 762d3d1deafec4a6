package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/medsync-health/medsync-app/medsync/client"
	"github.com/medsync-health/medsync-app/medsync/constants"
	"github.com/medsync-health/medsync-app/medsync/models/fhir"
	"github.com/medsync-health/medsync-app/medsync/monitoring"
)

// App Name and usage.  Edit them here to prevent breaking tests
const Name = "medsync"
const Usage = "MedSync FHIR client CLI"

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = Name
	app.Usage = Usage
	app.Version = constants.Version
	var resourceType, resourceID, filePath string
	var params cli.StringSlice
	var asTransaction bool
	app.Commands = []cli.Command{
		{
			Name:  "metadata",
			Usage: "Fetch the server's capability statement",
			Action: func(c *cli.Context) error {
				return withMonitoring("metadata", func() error {
					capability, err := client.NewFromEnv().GetCapabilityStatement(context.Background())
					if err != nil {
						return err
					}
					return printJSON(app.Writer, capability)
				})
			},
		},
		{
			Name:  "check-connection",
			Usage: "Probe the FHIR server and report reachability",
			Action: func(c *cli.Context) error {
				if !client.NewFromEnv().CheckConnection(context.Background()) {
					return errors.New("FHIR server is unreachable")
				}
				fmt.Fprintf(app.Writer, "%s\n", "FHIR server is reachable")
				return nil
			},
		},
		{
			Name:  "search",
			Usage: "Search resources of a type",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "type",
					Usage:       "FHIR resource type",
					Destination: &resourceType,
				},
				cli.StringSliceFlag{
					Name:  "param",
					Usage: "Search parameter as key=value; repeatable, sent in the order given",
					Value: &params,
				},
			},
			Action: func(c *cli.Context) error {
				if resourceType == "" {
					return errors.New("resource type (--type) must be provided")
				}
				searchParams, err := parseParams(params)
				if err != nil {
					return err
				}
				return withMonitoring("search", func() error {
					bundle, err := client.NewFromEnv().Search(context.Background(), resourceType, searchParams)
					if err != nil {
						return err
					}
					return printJSON(app.Writer, bundle)
				})
			},
		},
		{
			Name:  "get",
			Usage: "Read a single resource by ID",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "type",
					Usage:       "FHIR resource type",
					Destination: &resourceType,
				},
				cli.StringFlag{
					Name:        "id",
					Usage:       "Resource ID",
					Destination: &resourceID,
				},
			},
			Action: func(c *cli.Context) error {
				if resourceType == "" || resourceID == "" {
					return errors.New("resource type (--type) and ID (--id) must be provided")
				}
				return withMonitoring("get", func() error {
					resource, err := client.NewFromEnv().Get(context.Background(), resourceType, resourceID)
					if err != nil {
						return err
					}
					return printJSON(app.Writer, resource)
				})
			},
		},
		{
			Name:  "create",
			Usage: "Create a resource from a JSON file",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "type",
					Usage:       "FHIR resource type",
					Destination: &resourceType,
				},
				cli.StringFlag{
					Name:        "file",
					Usage:       "Path to the resource JSON",
					Destination: &filePath,
				},
			},
			Action: func(c *cli.Context) error {
				if resourceType == "" {
					return errors.New("resource type (--type) must be provided")
				}
				payload, err := loadResource(filePath)
				if err != nil {
					return err
				}
				return withMonitoring("create", func() error {
					created, err := client.NewFromEnv().Create(context.Background(), resourceType, payload)
					if err != nil {
						return err
					}
					return printJSON(app.Writer, created)
				})
			},
		},
		{
			Name:  "update",
			Usage: "Update a resource from a JSON file",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "type",
					Usage:       "FHIR resource type",
					Destination: &resourceType,
				},
				cli.StringFlag{
					Name:        "id",
					Usage:       "Resource ID",
					Destination: &resourceID,
				},
				cli.StringFlag{
					Name:        "file",
					Usage:       "Path to the resource JSON",
					Destination: &filePath,
				},
			},
			Action: func(c *cli.Context) error {
				if resourceType == "" || resourceID == "" {
					return errors.New("resource type (--type) and ID (--id) must be provided")
				}
				payload, err := loadResource(filePath)
				if err != nil {
					return err
				}
				return withMonitoring("update", func() error {
					updated, err := client.NewFromEnv().Update(context.Background(), resourceType, resourceID, payload)
					if err != nil {
						return err
					}
					return printJSON(app.Writer, updated)
				})
			},
		},
		{
			Name:  "delete",
			Usage: "Delete a resource by ID",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "type",
					Usage:       "FHIR resource type",
					Destination: &resourceType,
				},
				cli.StringFlag{
					Name:        "id",
					Usage:       "Resource ID",
					Destination: &resourceID,
				},
			},
			Action: func(c *cli.Context) error {
				if resourceType == "" || resourceID == "" {
					return errors.New("resource type (--type) and ID (--id) must be provided")
				}
				return withMonitoring("delete", func() error {
					if err := client.NewFromEnv().Delete(context.Background(), resourceType, resourceID); err != nil {
						return err
					}
					fmt.Fprintf(app.Writer, "Deleted %s/%s\n", resourceType, resourceID)
					return nil
				})
			},
		},
		{
			Name:  "submit",
			Usage: "Submit a bundle of operations",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "file",
					Usage:       "Path to the bundle JSON",
					Destination: &filePath,
				},
				cli.BoolFlag{
					Name:        "transaction",
					Usage:       "Submit atomically as a transaction bundle",
					Destination: &asTransaction,
				},
			},
			Action: func(c *cli.Context) error {
				bundle, err := loadBundle(filePath)
				if err != nil {
					return err
				}
				return withMonitoring("submit", func() error {
					api := client.NewFromEnv()
					var response *fhir.Bundle
					var err error
					if asTransaction {
						response, err = api.Transaction(context.Background(), bundle)
					} else {
						response, err = api.Batch(context.Background(), bundle)
					}
					if err != nil {
						return err
					}
					return printJSON(app.Writer, response)
				})
			},
		},
	}
	return app
}

func withMonitoring(name string, fn func() error) error {
	m := monitoring.GetMonitor()
	txn := m.Start(name)
	defer m.End(txn)
	return fn()
}

func parseParams(pairs []string) (*client.SearchParams, error) {
	params := client.NewSearchParams()
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, errors.Errorf("invalid search parameter %q; expected key=value", pair)
		}
		params.Add(kv[0], kv[1])
	}
	return params, nil
}

func loadResource(path string) (*fhir.Resource, error) {
	if path == "" {
		return nil, errors.New("resource file (--file) must be provided")
	}
	data, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}
	var resource fhir.Resource
	if err := json.Unmarshal(data, &resource); err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", path)
	}
	return &resource, nil
}

func loadBundle(path string) (*fhir.Bundle, error) {
	if path == "" {
		return nil, errors.New("bundle file (--file) must be provided")
	}
	data, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}
	var bundle fhir.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", path)
	}
	if bundle.ResourceType != fhir.TypeBundle {
		return nil, errors.Errorf("%s does not contain a Bundle resource", path)
	}
	return &bundle, nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", out)
	return nil
}
