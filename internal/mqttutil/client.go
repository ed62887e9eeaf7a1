// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mqttutil holds the MQTT connect/subscribe/publish boilerplate
// every glove program shares.
package mqttutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Subscription is re-established every time the client (re)connects.
type Subscription struct {
	Topic   string
	QoS     byte
	Handler mqtt.MessageHandler
}

// Options configures Connect.
type Options struct {
	Broker        string // e.g. tcp://platform.local:1883
	Fallback      string // host used when Broker's host does not resolve
	ClientID      string // a random suffix is appended
	Subscriptions []Subscription
}

// ClientID returns base with a short random suffix so two copies of the
// same program do not kick each other off the broker.
func ClientID(base string) string {
	return base + "-" + uuid.NewString()[:8]
}

// ResolveBroker resolves the broker hostname (usually an mDNS name) to an
// address. When the lookup fails and fallback is set, the fallback host
// is used with the original scheme and port.
func ResolveBroker(broker, fallback string) string {
	u, err := url.Parse(broker)
	if err != nil || u.Hostname() == "" {
		return broker
	}
	host := u.Hostname()
	if net.ParseIP(host) != nil {
		return broker
	}

	addrs, err := net.LookupHost(host)
	switch {
	case err == nil && len(addrs) > 0:
		log.Printf("mqtt: broker %s resolved to %s", host, addrs[0])
		host = addrs[0]
	case fallback != "":
		log.Printf("mqtt: resolving %s failed (%v), using fallback %s", host, err, fallback)
		host = fallback
	default:
		return broker
	}

	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if net.ParseIP(host) != nil && net.ParseIP(host).To4() == nil {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}
	return u.String()
}

// Connect connects to the broker with auto-reconnect enabled and returns
// once the first set of subscriptions is in place.
func Connect(ctx context.Context, o Options) (mqtt.Client, error) {
	broker := ResolveBroker(o.Broker, o.Fallback)

	subscribed := make(chan error, 1)
	var once sync.Once

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID(o.ClientID)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetKeepAlive(60 * time.Second).
		SetOrderMatters(false)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Printf("mqtt: connected to %s", broker)
		var firstErr error
		for _, s := range o.Subscriptions {
			token := c.Subscribe(s.Topic, s.QoS, s.Handler)
			if token.Wait() && token.Error() != nil {
				log.Printf("mqtt: subscribe %s: %v", s.Topic, token.Error())
				if firstErr == nil {
					firstErr = fmt.Errorf("subscribe %s: %w", s.Topic, token.Error())
				}
				continue
			}
			log.Printf("mqtt: subscribed to %s", s.Topic)
		}
		once.Do(func() { subscribed <- firstErr })
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("mqtt: connection lost: %v (reconnecting)", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
		}
	case <-ctx.Done():
		client.Disconnect(0)
		return nil, ctx.Err()
	}

	select {
	case err := <-subscribed:
		if err != nil {
			client.Disconnect(250)
			return nil, err
		}
	case <-ctx.Done():
		client.Disconnect(0)
		return nil, ctx.Err()
	}
	return client, nil
}

// PublishJSON marshals v and publishes it, waiting for the token.
func PublishJSON(c mqtt.Client, topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	return Publish(c, topic, retained, payload)
}

// Publish sends a raw payload at QoS 0.
func Publish(c mqtt.Client, topic string, retained bool, payload any) error {
	token := c.Publish(topic, 0, retained, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}
