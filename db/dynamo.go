package db

import (
	"fmt"
	"strconv"

	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/model"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// batch reads are capped by DynamoDB
const maxBatch = 100

func numberList(v *dynamodb.AttributeValue) []int {
	if v == nil {
		return nil
	}
	var res []int
	for _, n := range v.NS {
		i, _ := strconv.Atoi(*n)
		res = append(res, i)
	}
	for _, n := range v.L {
		if n.N != nil {
			i, _ := strconv.Atoi(*n.N)
			res = append(res, i)
		}
	}
	return res
}

func number(v *dynamodb.AttributeValue) float64 {
	if v == nil || v.N == nil {
		return 0
	}
	f, _ := strconv.ParseFloat(*v.N, 64)
	return f
}

func str(v *dynamodb.AttributeValue) string {
	if v == nil || v.S == nil {
		return ""
	}
	return *v.S
}

// ToSongInfo reads one item of the songs table. Levels are stored already
// ordered drum, guitar, bass.
func ToSongInfo(item map[string]*dynamodb.AttributeValue) model.SongInfo {
	return model.SongInfo{
		Title:              str(item["Title"]),
		Artist:             str(item["Artist"]),
		BPM:                number(item["BPM"]),
		BPM2:               number(item["BPM2"]),
		Difficulty:         numberList(item["Difficulty"]),
		ClassicsDifficulty: numberList(item["ClassicsDifficulty"]),
	}
}

// GetSongInfos fetches songs keyed by music id from a DynamoDB table whose
// partition key PK holds the id as a string.
func GetSongInfos(table string, musicIDs []int) map[int]model.SongInfo {
	if len(musicIDs) > maxBatch {
		panic(fmt.Sprintf("Not supposed to pass in more than %d music ids!", maxBatch))
	}

	res := make(map[int]model.SongInfo)

	if len(musicIDs) == 0 {
		return res
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, id := range musicIDs {
		key := make(map[string]*dynamodb.AttributeValue)
		key["PK"] = &dynamodb.AttributeValue{
			S: aws.String(strconv.Itoa(id)),
		}
		keys = append(keys, key)
	}

	endpoint := constants.GetDynamoEndpoint()
	session, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: &endpoint,
	})
	if err != nil {
		panic("Could not create a new DynamoDB session because " + err.Error())
	}

	client := dynamodb.New(session)
	input := &dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			table: {Keys: keys},
		},
	}
	dbres, err := client.BatchGetItem(input)
	if err != nil {
		panic("Error from DynamoDB: " + err.Error())
	}

	for _, v := range dbres.Responses[table] {
		id, err := strconv.Atoi(str(v["PK"]))
		if err != nil {
			continue
		}
		res[id] = ToSongInfo(v)
	}

	return res
}
