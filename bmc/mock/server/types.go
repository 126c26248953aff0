// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package server

type ODataID struct {
	ODataID string `json:"@odata.id"`
}

type ServiceRoot struct {
	ODataType      string           `json:"@odata.type"`
	ODataID        string           `json:"@odata.id"`
	ID             string           `json:"Id"`
	Name           string           `json:"Name"`
	RedfishVersion string           `json:"RedfishVersion"`
	UUID           string           `json:"UUID"`
	Managers       ODataID          `json:"Managers"`
	SessionService ODataID          `json:"SessionService"`
	Links          ServiceRootLinks `json:"Links"`
}

type ServiceRootLinks struct {
	Sessions ODataID `json:"Sessions"`
}

type Collection struct {
	ODataType    string    `json:"@odata.type"`
	ODataID      string    `json:"@odata.id"`
	Name         string    `json:"Name"`
	MembersCount int       `json:"Members@odata.count"`
	Members      []ODataID `json:"Members"`
}

type Status struct {
	State  string `json:"State"`
	Health string `json:"Health"`
}

type Manager struct {
	ODataType       string         `json:"@odata.type"`
	ODataID         string         `json:"@odata.id"`
	ID              string         `json:"Id"`
	Name            string         `json:"Name"`
	UUID            string         `json:"UUID"`
	ManagerType     string         `json:"ManagerType"`
	FirmwareVersion string         `json:"FirmwareVersion"`
	Status          Status         `json:"Status"`
	LogServices     ODataID        `json:"LogServices"`
	Actions         ManagerActions `json:"Actions"`
}

type ManagerActions struct {
	Reset ResetAction `json:"#Manager.Reset"`
}

type ResetAction struct {
	Target          string   `json:"target"`
	AllowableValues []string `json:"ResetType@Redfish.AllowableValues"`
}

type ResetRequest struct {
	ResetType string `json:"ResetType"`
}

type LogEntry struct {
	ODataType string `json:"@odata.type"`
	ODataID   string `json:"@odata.id"`
	ID        string `json:"Id"`
	Name      string `json:"Name"`
	EntryType string `json:"EntryType"`
	Severity  string `json:"Severity"`
	Created   string `json:"Created"`
	Message   string `json:"Message"`
}

type LogEntryCollection struct {
	ODataType    string     `json:"@odata.type"`
	ODataID      string     `json:"@odata.id"`
	Name         string     `json:"Name"`
	MembersCount int        `json:"Members@odata.count"`
	Members      []LogEntry `json:"Members"`
}

type SessionRequest struct {
	UserName string `json:"UserName"`
	Password string `json:"Password"`
}

type Session struct {
	ODataType string `json:"@odata.type"`
	ODataID   string `json:"@odata.id"`
	ID        string `json:"Id"`
	Name      string `json:"Name"`
	UserName  string `json:"UserName"`
}

type RedfishError struct {
	Error RedfishErrorBody `json:"error"`
}

type RedfishErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
