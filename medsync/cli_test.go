package main

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/urfave/cli"

	"github.com/medsync-health/medsync-app/conf"
	"github.com/medsync-health/medsync-app/medsync/constants"
	"github.com/medsync-health/medsync-app/medsync/models/fhir"
	"github.com/medsync-health/medsync-app/medsync/testUtils"
)

type CLITestSuite struct {
	suite.Suite
	testApp *cli.App
	server  *testUtils.FHIRServer
	output  *bytes.Buffer
}

func (s *CLITestSuite) SetupTest() {
	s.server = testUtils.NewFHIRServer()
	assert.Nil(s.T(), conf.SetEnv(s.T(), constants.EnvServerURL, s.server.URL))
	assert.Nil(s.T(), conf.SetEnv(s.T(), constants.EnvOrgID, "org-99"))

	s.testApp = GetApp()
	s.output = new(bytes.Buffer)
	s.testApp.Writer = s.output
}

func (s *CLITestSuite) TearDownTest() {
	s.server.Close()
	assert.Nil(s.T(), conf.UnsetEnv(s.T(), constants.EnvServerURL))
	assert.Nil(s.T(), conf.UnsetEnv(s.T(), constants.EnvOrgID))
}

func (s *CLITestSuite) writeFixture(name string, v interface{}) string {
	data, err := json.Marshal(v)
	require.Nil(s.T(), err)
	path := filepath.Join(s.T().TempDir(), name)
	require.Nil(s.T(), ioutil.WriteFile(path, data, os.FileMode(0600)))
	return path
}

func (s *CLITestSuite) TestMetadata() {
	err := s.testApp.Run([]string{"medsync", "metadata"})
	assert.Nil(s.T(), err)
	assert.Contains(s.T(), s.output.String(), "CapabilityStatement")

	req, ok := s.server.LastRequest()
	require.True(s.T(), ok)
	assert.Equal(s.T(), "/metadata", req.Path)
}

func (s *CLITestSuite) TestCheckConnection() {
	err := s.testApp.Run([]string{"medsync", "check-connection"})
	assert.Nil(s.T(), err)
	assert.Contains(s.T(), s.output.String(), "reachable")
}

func (s *CLITestSuite) TestCheckConnectionUnreachable() {
	s.server.Close()
	err := s.testApp.Run([]string{"medsync", "check-connection"})
	assert.EqualError(s.T(), err, "FHIR server is unreachable")
}

func (s *CLITestSuite) TestSearchParamOrder() {
	err := s.testApp.Run([]string{"medsync", "search", "--type", "Encounter",
		"--param", "status=finished", "--param", "date=ge2024-01-01"})
	assert.Nil(s.T(), err)

	req, ok := s.server.LastRequest()
	require.True(s.T(), ok)
	assert.Equal(s.T(), "/Encounter", req.Path)
	assert.Equal(s.T(), "status=finished&date=ge2024-01-01", req.RawQuery)
}

func (s *CLITestSuite) TestSearchRequiresType() {
	err := s.testApp.Run([]string{"medsync", "search"})
	assert.EqualError(s.T(), err, "resource type (--type) must be provided")
}

func (s *CLITestSuite) TestSearchRejectsMalformedParam() {
	err := s.testApp.Run([]string{"medsync", "search", "--type", "Patient", "--param", "status"})
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "invalid search parameter")
}

func (s *CLITestSuite) TestGet() {
	err := s.testApp.Run([]string{"medsync", "get", "--type", "Patient", "--id", "pat-1"})
	assert.Nil(s.T(), err)

	req, ok := s.server.LastRequest()
	require.True(s.T(), ok)
	assert.Equal(s.T(), "GET", req.Method)
	assert.Equal(s.T(), "/Patient/pat-1", req.Path)
	assert.Contains(s.T(), s.output.String(), `"id": "pat-1"`)
}

func (s *CLITestSuite) TestCreateFromFile() {
	path := s.writeFixture("patient.json", &fhir.Resource{
		ResourceType: fhir.TypePatient,
		Fields:       map[string]interface{}{"gender": "female"},
	})

	err := s.testApp.Run([]string{"medsync", "create", "--type", "Patient", "--file", path})
	assert.Nil(s.T(), err)

	req, ok := s.server.LastRequest()
	require.True(s.T(), ok)
	assert.Equal(s.T(), "POST", req.Method)
	assert.Equal(s.T(), "/Patient", req.Path)

	var sent fhir.Resource
	require.Nil(s.T(), req.BodyJSON(&sent))
	ref, _ := sent.Get("managingOrganization")
	require.NotNil(s.T(), ref)
}

func (s *CLITestSuite) TestCreateRequiresFile() {
	err := s.testApp.Run([]string{"medsync", "create", "--type", "Patient"})
	assert.EqualError(s.T(), err, "resource file (--file) must be provided")
}

func (s *CLITestSuite) TestUpdateFromFile() {
	path := s.writeFixture("encounter.json", &fhir.Resource{
		ResourceType: fhir.TypeEncounter,
		ID:           "enc-1",
		Fields:       map[string]interface{}{"status": "finished"},
	})

	err := s.testApp.Run([]string{"medsync", "update", "--type", "Encounter", "--id", "enc-1", "--file", path})
	assert.Nil(s.T(), err)

	req, ok := s.server.LastRequest()
	require.True(s.T(), ok)
	assert.Equal(s.T(), "PUT", req.Method)
	assert.Equal(s.T(), "/Encounter/enc-1", req.Path)
}

func (s *CLITestSuite) TestDelete() {
	err := s.testApp.Run([]string{"medsync", "delete", "--type", "Condition", "--id", "cond-1"})
	assert.Nil(s.T(), err)
	assert.Contains(s.T(), s.output.String(), "Deleted Condition/cond-1")

	req, ok := s.server.LastRequest()
	require.True(s.T(), ok)
	assert.Equal(s.T(), "DELETE", req.Method)
	assert.Equal(s.T(), "/Condition/cond-1", req.Path)
}

func (s *CLITestSuite) TestSubmitBatch() {
	path := s.writeFixture("bundle.json", &fhir.Bundle{
		ResourceType: fhir.TypeBundle,
		Type:         fhir.BundleTypeBatch,
	})

	err := s.testApp.Run([]string{"medsync", "submit", "--file", path})
	assert.Nil(s.T(), err)

	req, ok := s.server.LastRequest()
	require.True(s.T(), ok)
	assert.Equal(s.T(), "POST", req.Method)
	assert.Equal(s.T(), "/", req.Path)

	var sent fhir.Bundle
	require.Nil(s.T(), req.BodyJSON(&sent))
	assert.Equal(s.T(), fhir.BundleTypeBatch, sent.Type)
}

func (s *CLITestSuite) TestSubmitTransactionForcesType() {
	path := s.writeFixture("bundle.json", &fhir.Bundle{
		ResourceType: fhir.TypeBundle,
		Type:         fhir.BundleTypeCollection,
	})

	err := s.testApp.Run([]string{"medsync", "submit", "--file", path, "--transaction"})
	assert.Nil(s.T(), err)

	req, ok := s.server.LastRequest()
	require.True(s.T(), ok)
	var sent fhir.Bundle
	require.Nil(s.T(), req.BodyJSON(&sent))
	assert.Equal(s.T(), fhir.BundleTypeTransaction, sent.Type)
}

func (s *CLITestSuite) TestSubmitRejectsNonBundle() {
	path := s.writeFixture("patient.json", &fhir.Resource{ResourceType: fhir.TypePatient})

	err := s.testApp.Run([]string{"medsync", "submit", "--file", path})
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "does not contain a Bundle resource")
}

func TestCLITestSuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}
