// Package ddb implements the repository interface using AWS DynamoDB.
// This is the only layer that should have knowledge of DynamoDB specifics.
//
// Single-table layout:
//
//	Session:    PK=SESSION#<id>          SK=METADATA  GSI1PK=SESSIONS        GSI1SK=SESSION#<id>
//	Node:       PK=NODE#<id>             SK=METADATA  GSI1PK=SESSION#<sid>   GSI1SK=NODE#<id>
//	Edge:       PK=EDGE#<id>             SK=METADATA  GSI1PK=SESSION#<sid>   GSI1SK=EDGE#<id>
//	Edge guard: PK=SESSION#<sid>#EDGE#<src>#<tgt>  SK=GUARD  GSI1PK=SESSION#<sid>  GSI1SK=GUARD#<src>#<tgt>
//
// The guard item gives ordered-pair uniqueness an atomic conditional check;
// the GSI partition per session makes snapshot and cascade reads one query.
package ddb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"mindmap-backend/internal/domain"
	"mindmap-backend/internal/repository"
	appErrors "mindmap-backend/pkg/errors"
)

const (
	skMetadata  = "METADATA"
	skGuard     = "GUARD"
	sessionsPK  = "SESSIONS"
	gsi1PKAttr  = "GSI1PK"
	gsi1SKAttr  = "GSI1SK"
	maxBatchDel = 25 // BatchWriteItem limit
)

// sessionItem represents the structure of a session item in DynamoDB.
type sessionItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	GSI1PK    string `dynamodbav:"GSI1PK"`
	GSI1SK    string `dynamodbav:"GSI1SK"`
	SessionID string `dynamodbav:"SessionID"`
	Title     string `dynamodbav:"Title"`
	CreatedAt string `dynamodbav:"CreatedAt"`
	UpdatedAt string `dynamodbav:"UpdatedAt,omitempty"`
}

// nodeItem represents the structure of a node item in DynamoDB.
type nodeItem struct {
	PK        string         `dynamodbav:"PK"`
	SK        string         `dynamodbav:"SK"`
	GSI1PK    string         `dynamodbav:"GSI1PK"`
	GSI1SK    string         `dynamodbav:"GSI1SK"`
	NodeID    string         `dynamodbav:"NodeID"`
	SessionID string         `dynamodbav:"SessionID"`
	Content   string         `dynamodbav:"Content"`
	X         int            `dynamodbav:"X"`
	Y         int            `dynamodbav:"Y"`
	Width     int            `dynamodbav:"Width"`
	Height    int            `dynamodbav:"Height"`
	Style     map[string]any `dynamodbav:"Style"`
	CreatedAt string         `dynamodbav:"CreatedAt"`
	UpdatedAt string         `dynamodbav:"UpdatedAt,omitempty"`
}

// edgeItem represents the structure of an edge item in DynamoDB.
type edgeItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	GSI1PK    string `dynamodbav:"GSI1PK"`
	GSI1SK    string `dynamodbav:"GSI1SK"`
	EdgeID    string `dynamodbav:"EdgeID"`
	SessionID string `dynamodbav:"SessionID"`
	SourceID  string `dynamodbav:"SourceID"`
	TargetID  string `dynamodbav:"TargetID"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

// guardItem enforces at most one edge per ordered (session, source, target).
type guardItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
	EdgeID string `dynamodbav:"EdgeID"`
}

// ddbRepository is the concrete implementation for DynamoDB.
type ddbRepository struct {
	dbClient  *dynamodb.Client
	tableName string
	indexName string
}

// NewRepository creates a new instance of the DynamoDB repository.
func NewRepository(dbClient *dynamodb.Client, tableName, indexName string) repository.Repository {
	return &ddbRepository{
		dbClient:  dbClient,
		tableName: tableName,
		indexName: indexName,
	}
}

func sessionPK(sessionID string) string { return "SESSION#" + sessionID }
func nodePK(nodeID string) string       { return "NODE#" + nodeID }
func edgePK(edgeID string) string       { return "EDGE#" + edgeID }

func guardPK(sessionID, sourceID, targetID string) string {
	return fmt.Sprintf("SESSION#%s#EDGE#%s#%s", sessionID, sourceID, targetID)
}

// ---------------------------------------------------------------- sessions

func (r *ddbRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	item, err := attributevalue.MarshalMap(sessionItem{
		PK:        sessionPK(session.ID),
		SK:        skMetadata,
		GSI1PK:    sessionsPK,
		GSI1SK:    sessionPK(session.ID),
		SessionID: session.ID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: formatOptional(session.UpdatedAt),
	})
	if err != nil {
		return appErrors.NewInternal("failed to marshal session item", err)
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return appErrors.NewValidation("session already exists")
		}
		return appErrors.NewTransient("failed to put session item", err)
	}
	return nil
}

func (r *ddbRepository) FindSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	item, err := r.getItem(ctx, sessionPK(sessionID), skMetadata)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, appErrors.NewNotFound("session not found")
	}
	return unmarshalSession(item)
}

func (r *ddbRepository) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	keyCond := expression.Key(gsi1PKAttr).Equal(expression.Value(sessionsPK))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.NewInternal("failed to build session list query", err)
	}

	sessions := []*domain.Session{}
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(r.indexName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, appErrors.NewTransient("failed to query sessions", err)
		}
		for _, item := range out.Items {
			session, err := unmarshalSession(item)
			if err != nil {
				return nil, err
			}
			sessions = append(sessions, session)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return sessions, nil
}

func (r *ddbRepository) UpdateSessionTitle(ctx context.Context, sessionID, title string) (*domain.Session, error) {
	update := expression.
		Set(expression.Name("Title"), expression.Value(title)).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, appErrors.NewInternal("failed to build session update", err)
	}

	out, err := r.dbClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key(sessionPK(sessionID), skMetadata),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, appErrors.NewNotFound("session not found")
		}
		return nil, appErrors.NewTransient("failed to update session", err)
	}
	return unmarshalSession(out.Attributes)
}

func (r *ddbRepository) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	if _, err := r.FindSession(ctx, sessionID); err != nil {
		if appErrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	// Everything the session owns lives in its GSI partition.
	items, err := r.querySessionPartition(ctx, sessionID)
	if err != nil {
		return false, err
	}

	keys := make([]map[string]types.AttributeValue, 0, len(items)+1)
	for _, item := range items {
		pk, sk, err := primaryKeyOf(item)
		if err != nil {
			return false, err
		}
		keys = append(keys, key(pk, sk))
	}
	keys = append(keys, key(sessionPK(sessionID), skMetadata))

	for start := 0; start < len(keys); start += maxBatchDel {
		end := start + maxBatchDel
		if end > len(keys) {
			end = len(keys)
		}
		requests := make([]types.WriteRequest, 0, end-start)
		for _, k := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: k},
			})
		}
		_, err := r.dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: requests},
		})
		if err != nil {
			return false, appErrors.NewTransient("failed to cascade-delete session items", err)
		}
	}
	return true, nil
}

// ------------------------------------------------------------------- nodes

func (r *ddbRepository) CreateNode(ctx context.Context, node *domain.Node) error {
	item, err := attributevalue.MarshalMap(nodeItem{
		PK:        nodePK(node.ID),
		SK:        skMetadata,
		GSI1PK:    sessionPK(node.SessionID),
		GSI1SK:    nodePK(node.ID),
		NodeID:    node.ID,
		SessionID: node.SessionID,
		Content:   node.Content,
		X:         node.X,
		Y:         node.Y,
		Width:     node.Width,
		Height:    node.Height,
		Style:     node.Style,
		CreatedAt: node.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: formatOptional(node.UpdatedAt),
	})
	if err != nil {
		return appErrors.NewInternal("failed to marshal node item", err)
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return appErrors.NewTransient("failed to put node item", err)
	}
	return nil
}

func (r *ddbRepository) FindNode(ctx context.Context, nodeID string) (*domain.Node, error) {
	item, err := r.getItem(ctx, nodePK(nodeID), skMetadata)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, appErrors.NewNotFound("node not found")
	}
	return unmarshalNode(item)
}

func (r *ddbRepository) UpdateNode(ctx context.Context, nodeID string, patch domain.NodePatch) (*domain.Node, error) {
	// Sparse update: SET only the fields the patch carries.
	update := expression.Set(
		expression.Name("UpdatedAt"),
		expression.Value(time.Now().UTC().Format(time.RFC3339Nano)),
	)
	if patch.Content != nil {
		update = update.Set(expression.Name("Content"), expression.Value(*patch.Content))
	}
	if patch.X != nil {
		update = update.Set(expression.Name("X"), expression.Value(*patch.X))
	}
	if patch.Y != nil {
		update = update.Set(expression.Name("Y"), expression.Value(*patch.Y))
	}
	if patch.Width != nil {
		update = update.Set(expression.Name("Width"), expression.Value(*patch.Width))
	}
	if patch.Height != nil {
		update = update.Set(expression.Name("Height"), expression.Value(*patch.Height))
	}
	if patch.Style != nil {
		update = update.Set(expression.Name("Style"), expression.Value(patch.Style))
	}

	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, appErrors.NewInternal("failed to build node update", err)
	}

	out, err := r.dbClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key(nodePK(nodeID), skMetadata),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, appErrors.NewNotFound("node not found")
		}
		return nil, appErrors.NewTransient("failed to update node", err)
	}
	return unmarshalNode(out.Attributes)
}

func (r *ddbRepository) DeleteNode(ctx context.Context, nodeID string) (bool, error) {
	node, err := r.FindNode(ctx, nodeID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	// Incident edges go in the same transaction as the node so there is no
	// window where an edge references a nonexistent node.
	edges, err := r.sessionEdges(ctx, node.SessionID)
	if err != nil {
		return false, err
	}

	transactItems := []types.TransactWriteItem{{
		Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key:       key(nodePK(nodeID), skMetadata),
		},
	}}
	for _, edge := range edges {
		if edge.SourceID != nodeID && edge.TargetID != nodeID {
			continue
		}
		transactItems = append(transactItems,
			types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       key(edgePK(edge.ID), skMetadata),
			}},
			types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       key(guardPK(edge.SessionID, edge.SourceID, edge.TargetID), skGuard),
			}},
		)
	}

	_, err = r.dbClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		return false, appErrors.NewTransient("transaction to delete node and incident edges failed", err)
	}
	return true, nil
}

// ------------------------------------------------------------------- edges

func (r *ddbRepository) CreateEdge(ctx context.Context, edge *domain.Edge) error {
	item, err := attributevalue.MarshalMap(edgeItem{
		PK:        edgePK(edge.ID),
		SK:        skMetadata,
		GSI1PK:    sessionPK(edge.SessionID),
		GSI1SK:    edgePK(edge.ID),
		EdgeID:    edge.ID,
		SessionID: edge.SessionID,
		SourceID:  edge.SourceID,
		TargetID:  edge.TargetID,
		CreatedAt: edge.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return appErrors.NewInternal("failed to marshal edge item", err)
	}

	guard, err := attributevalue.MarshalMap(guardItem{
		PK:     guardPK(edge.SessionID, edge.SourceID, edge.TargetID),
		SK:     skGuard,
		GSI1PK: sessionPK(edge.SessionID),
		GSI1SK: fmt.Sprintf("GUARD#%s#%s", edge.SourceID, edge.TargetID),
		EdgeID: edge.ID,
	})
	if err != nil {
		return appErrors.NewInternal("failed to marshal edge guard item", err)
	}

	// Transaction order matters for error mapping below: the condition
	// checks pin both endpoints alive, the guard put rejects duplicates.
	transactItems := []types.TransactWriteItem{
		{ConditionCheck: &types.ConditionCheck{
			TableName:           aws.String(r.tableName),
			Key:                 key(nodePK(edge.SourceID), skMetadata),
			ConditionExpression: aws.String("attribute_exists(PK)"),
		}},
		{ConditionCheck: &types.ConditionCheck{
			TableName:           aws.String(r.tableName),
			Key:                 key(nodePK(edge.TargetID), skMetadata),
			ConditionExpression: aws.String("attribute_exists(PK)"),
		}},
		{Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                guard,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		}},
		{Put: &types.Put{
			TableName: aws.String(r.tableName),
			Item:      item,
		}},
	}

	_, err = r.dbClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for i, reason := range canceled.CancellationReasons {
				if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
					continue
				}
				if i < 2 {
					return appErrors.NewValidation("source or target node not found")
				}
				return appErrors.NewValidation("edge already exists")
			}
		}
		return appErrors.NewTransient("transaction to create edge failed", err)
	}
	return nil
}

func (r *ddbRepository) FindEdge(ctx context.Context, edgeID string) (*domain.Edge, error) {
	item, err := r.getItem(ctx, edgePK(edgeID), skMetadata)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, appErrors.NewNotFound("edge not found")
	}
	return unmarshalEdge(item)
}

func (r *ddbRepository) DeleteEdge(ctx context.Context, edgeID string) (bool, error) {
	edge, err := r.FindEdge(ctx, edgeID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	_, err = r.dbClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       key(edgePK(edgeID), skMetadata),
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       key(guardPK(edge.SessionID, edge.SourceID, edge.TargetID), skGuard),
			}},
		},
	})
	if err != nil {
		return false, appErrors.NewTransient("transaction to delete edge failed", err)
	}
	return true, nil
}

// --------------------------------------------------------------- snapshots

func (r *ddbRepository) GetSessionState(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	items, err := r.querySessionPartition(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := &domain.SessionState{Nodes: []*domain.Node{}, Edges: []*domain.Edge{}}
	for _, item := range items {
		sk, err := stringAttr(item, gsi1SKAttr)
		if err != nil {
			return nil, err
		}
		switch {
		case strings.HasPrefix(sk, "NODE#"):
			node, err := unmarshalNode(item)
			if err != nil {
				return nil, err
			}
			state.Nodes = append(state.Nodes, node)
		case strings.HasPrefix(sk, "EDGE#"):
			edge, err := unmarshalEdge(item)
			if err != nil {
				return nil, err
			}
			state.Edges = append(state.Edges, edge)
		}
	}
	return state, nil
}

// ----------------------------------------------------------------- helpers

func (r *ddbRepository) getItem(ctx context.Context, pk, sk string) (map[string]types.AttributeValue, error) {
	out, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       key(pk, sk),
	})
	if err != nil {
		return nil, appErrors.NewTransient("failed to get item", err)
	}
	if out.Item == nil || len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// querySessionPartition returns every item in a session's GSI partition:
// nodes, edges, and edge guards.
func (r *ddbRepository) querySessionPartition(ctx context.Context, sessionID string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key(gsi1PKAttr).Equal(expression.Value(sessionPK(sessionID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.NewInternal("failed to build session partition query", err)
	}

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(r.indexName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, appErrors.NewTransient("failed to query session partition", err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (r *ddbRepository) sessionEdges(ctx context.Context, sessionID string) ([]*domain.Edge, error) {
	state, err := r.GetSessionState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state.Edges, nil
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func primaryKeyOf(item map[string]types.AttributeValue) (string, string, error) {
	pk, err := stringAttr(item, "PK")
	if err != nil {
		return "", "", err
	}
	sk, err := stringAttr(item, "SK")
	if err != nil {
		return "", "", err
	}
	return pk, sk, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	attr, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", appErrors.NewInternal(fmt.Sprintf("item missing string attribute %s", name), nil)
	}
	return attr.Value, nil
}

func isConditionalCheckFailed(err error) bool {
	var condFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condFailed)
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, appErrors.NewInternal("failed to parse stored timestamp", err)
	}
	return t, nil
}

func parseOptional(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseTime(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func unmarshalSession(item map[string]types.AttributeValue) (*domain.Session, error) {
	var record sessionItem
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, appErrors.NewInternal("failed to unmarshal session item", err)
	}
	createdAt, err := parseTime(record.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseOptional(record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:        record.SessionID,
		Title:     record.Title,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func unmarshalNode(item map[string]types.AttributeValue) (*domain.Node, error) {
	var record nodeItem
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, appErrors.NewInternal("failed to unmarshal node item", err)
	}
	createdAt, err := parseTime(record.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseOptional(record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	style := record.Style
	if style == nil {
		style = map[string]any{}
	}
	return &domain.Node{
		ID:        record.NodeID,
		SessionID: record.SessionID,
		Content:   record.Content,
		X:         record.X,
		Y:         record.Y,
		Width:     record.Width,
		Height:    record.Height,
		Style:     style,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func unmarshalEdge(item map[string]types.AttributeValue) (*domain.Edge, error) {
	var record edgeItem
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, appErrors.NewInternal("failed to unmarshal edge item", err)
	}
	createdAt, err := parseTime(record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Edge{
		ID:        record.EdgeID,
		SessionID: record.SessionID,
		SourceID:  record.SourceID,
		TargetID:  record.TargetID,
		CreatedAt: createdAt,
	}, nil
}
