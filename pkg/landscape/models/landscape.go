// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package models

// Landscape represents an SDAF workload zone landscape.
//
// The JSON names match the ones used by the SDAF web application, so that
// payloads written by either side are interchangeable. Optional settings are
// pointers in order to distinguish between unset and zero values.
type Landscape struct {
	// ID is the unique identifier of the landscape within its environment.
	ID string `json:"Id" yaml:"id"`

	// IsDefault specifies whether the landscape is the default one for its
	// environment.
	IsDefault bool `json:"IsDefault" yaml:"is_default"`

	// Environment is the deployment environment, e.g. DEV or PRD.
	Environment string `json:"environment" yaml:"environment"`

	// Location is the Azure region of the landscape.
	Location string `json:"location" yaml:"location"`

	// NetworkLogicalName is the logical name of the workload zone network.
	NetworkLogicalName string `json:"network_logical_name" yaml:"network_logical_name"`

	Subscription      *string `json:"subscription" yaml:"subscription"`
	ResourceGroupName *string `json:"resourcegroup_name" yaml:"resourcegroup_name"`

	NetworkAddressSpace      *string `json:"network_address_space" yaml:"network_address_space"`
	AdminSubnetAddressPrefix *string `json:"admin_subnet_address_prefix" yaml:"admin_subnet_address_prefix"`
	DBSubnetAddressPrefix    *string `json:"db_subnet_address_prefix" yaml:"db_subnet_address_prefix"`
	AppSubnetAddressPrefix   *string `json:"app_subnet_address_prefix" yaml:"app_subnet_address_prefix"`
	WebSubnetAddressPrefix   *string `json:"web_subnet_address_prefix" yaml:"web_subnet_address_prefix"`

	DNSLabel                             *string `json:"dns_label" yaml:"dns_label"`
	UsePrivateEndpoint                   *bool   `json:"use_private_endpoint" yaml:"use_private_endpoint"`
	EnableFirewallForKeyvaultsAndStorage *bool   `json:"enable_firewall_for_keyvaults_and_storage" yaml:"enable_firewall_for_keyvaults_and_storage"`
	AutomationUsername                   *string `json:"automation_username" yaml:"automation_username"`
	NumberOfIscsiServers                 *int    `json:"iscsi_count" yaml:"iscsi_count"`

	// Tags are applied to all resources of the landscape.
	Tags map[string]string `json:"tags" yaml:"tags"`

	// Additional holds free-form terraform variables, which are not modeled
	// explicitly.
	Additional map[string]any `json:"additional_variables" yaml:"additional_variables"`
}
