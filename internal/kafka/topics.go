package kafka

import (
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topics published by reconciliation runs and webhook handlers.
const (
	TopicEventCreated    = "ticketsync.event.created"
	TopicEventUpdated    = "ticketsync.event.updated"
	TopicEventRemoved    = "ticketsync.event.removed"
	TopicOrderReconciled = "ticketsync.order.reconciled"
	TopicSalesComputed   = "ticketsync.sales.computed"
)

// RequiredTopics lists every topic the service publishes to.
var RequiredTopics = []string{
	TopicEventCreated,
	TopicEventUpdated,
	TopicEventRemoved,
	TopicOrderReconciled,
	TopicSalesComputed,
}

// EnsureTopicsExist creates Kafka topics if they don't already exist.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		topicConfigs := []kafka.TopicConfig{
			{
				Topic:             topic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			},
		}

		err = controllerConn.CreateTopics(topicConfigs...)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			log.Printf("Error creating topic %s: %v", topic, err)
			// Keep trying the remaining topics even if one fails
		}
	}

	// Wait a moment for topics to be fully created
	time.Sleep(1 * time.Second)
	return nil
}
